package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"eventy/internal/database"
	"eventy/internal/templates"
)

// PrintDataHandler 为内部审阅服务提供渲染一批徽章所需的数据。
// 路由挂在 InternalSecretMiddleware 之后，不走用户鉴权。
type PrintDataHandler struct {
	db      *gorm.DB
	repo    templates.Repository
	storage presignedURLGenerator
}

func NewPrintDataHandler(db *gorm.DB, repo templates.Repository, storageClient presignedURLGenerator) *PrintDataHandler {
	return &PrintDataHandler{db: db, repo: repo, storage: storageClient}
}

type printDataAttendee struct {
	ID       uint   `json:"id"`
	FullName string `json:"full_name"`
	Company  string `json:"company,omitempty"`
	Title    string `json:"title,omitempty"`
	Token    string `json:"token"`
	PhotoURL string `json:"photo_url,omitempty"`
}

type printDataResponse struct {
	Template       datatypes.JSON      `json:"template"`
	EventName      string              `json:"event_name"`
	BrandPrimary   string              `json:"brand_primary,omitempty"`
	BrandSecondary string              `json:"brand_secondary,omitempty"`
	Attendees      []printDataAttendee `json:"attendees"`
}

// GetPrintData 返回任务的活动模板、品牌色与参会者数据，照片为预签名链接。
func (h *PrintDataHandler) GetPrintData(c *gin.Context) {
	jobID, err := parseUintParam(c.Param("jobID"))
	if err != nil {
		BadRequest(c, "invalid job id")
		return
	}

	ctx := c.Request.Context()

	var job database.PrintJob
	if err := h.db.WithContext(ctx).First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "job not found")
			return
		}
		Internal(c, "failed to load job")
		return
	}

	var event database.Event
	if err := h.db.WithContext(ctx).First(&event, job.EventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "event not found")
			return
		}
		Internal(c, "failed to load event")
		return
	}

	active, err := h.repo.Active(ctx, event.ID)
	if err != nil {
		if errors.Is(err, templates.ErrNotFound) {
			Conflict(c, "no active badge template")
			return
		}
		Internal(c, "failed to query active template")
		return
	}

	var attendeeIDs []uint
	if len(job.AttendeeIDs) > 0 {
		if err := json.Unmarshal(job.AttendeeIDs, &attendeeIDs); err != nil {
			Internal(c, "failed to decode attendee ids")
			return
		}
	}

	var records []database.Attendee
	if len(attendeeIDs) > 0 {
		if err := h.db.WithContext(ctx).
			Where("id IN ? AND event_id = ?", attendeeIDs, event.ID).
			Find(&records).Error; err != nil {
			Internal(c, "failed to load attendees")
			return
		}
	}

	byID := make(map[uint]database.Attendee, len(records))
	for _, a := range records {
		byID[a.ID] = a
	}

	attendees := make([]printDataAttendee, 0, len(attendeeIDs))
	for _, id := range attendeeIDs {
		a, ok := byID[id]
		if !ok {
			continue
		}
		item := printDataAttendee{
			ID:       a.ID,
			FullName: a.FullName,
			Company:  a.Company,
			Title:    a.Title,
			Token:    a.Token,
		}
		if a.PhotoObjectKey != "" {
			if url, err := h.storage.GeneratePresignedURL(ctx, a.PhotoObjectKey, 10*time.Minute); err == nil {
				item.PhotoURL = url
			}
		}
		attendees = append(attendees, item)
	}

	c.JSON(http.StatusOK, printDataResponse{
		Template:       active.Content,
		EventName:      event.Name,
		BrandPrimary:   event.BrandPrimary,
		BrandSecondary: event.BrandSecondary,
		Attendees:      attendees,
	})
}
