package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"eventy/internal/api/middleware"
	"eventy/internal/database"
	"eventy/internal/tasks"
	"eventy/internal/templates"
)

// taskEnqueuer 是 asynq.Client 的最小接口，便于测试替换。
type taskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// PrintHandler 负责徽章批次打印与导出任务的创建与查询。
type PrintHandler struct {
	db           *gorm.DB
	repo         templates.Repository
	asynqClient  taskEnqueuer
	storage      presignedURLGenerator
	maxAttendees int
}

func NewPrintHandler(db *gorm.DB, repo templates.Repository, asynqClient taskEnqueuer, storageClient presignedURLGenerator, maxAttendees int) *PrintHandler {
	return &PrintHandler{
		db:           db,
		repo:         repo,
		asynqClient:  asynqClient,
		storage:      storageClient,
		maxAttendees: maxAttendees,
	}
}

type badgeBatchRequest struct {
	AttendeeIDs []uint `json:"attendee_ids"`
}

// PrintBadges enqueues a print batch for the selected attendees. The selected
// attendees are marked badge_printed here, when the batch is requested, not
// when the PDF lands: a print request is the user saying "these went to the
// printer".
func (h *PrintHandler) PrintBadges(c *gin.Context) {
	h.enqueueBatch(c, "print")
}

// ExportBadges enqueues an export batch. Unlike printing it never touches the
// badge_printed flag.
func (h *PrintHandler) ExportBadges(c *gin.Context) {
	h.enqueueBatch(c, "export")
}

func (h *PrintHandler) enqueueBatch(c *gin.Context, kind string) {
	var req badgeBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	event, err := eventForUser(ctx, h.db, c.Param("id"), userID)
	if err != nil {
		respondEventLookupError(c, err)
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
	if active.Type != templates.TypeBadge {
		Conflict(c, "active template is not a badge template")
		return
	}

	attendeeIDs, err := h.resolveAttendeeIDs(ctx, event.ID, req.AttendeeIDs)
	if err != nil {
		if errors.Is(err, errUnknownAttendee) {
			BadRequest(c, "attendee does not belong to event")
			return
		}
		Internal(c, "failed to resolve attendees")
		return
	}
	if len(attendeeIDs) == 0 {
		BadRequest(c, "no attendees to process")
		return
	}
	if h.maxAttendees > 0 && len(attendeeIDs) > h.maxAttendees {
		BadRequest(c, fmt.Sprintf("batch exceeds limit of %d attendees", h.maxAttendees))
		return
	}

	encodedIDs, err := json.Marshal(attendeeIDs)
	if err != nil {
		Internal(c, "failed to encode attendee ids")
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	job := database.PrintJob{
		EventID:       event.ID,
		Kind:          kind,
		Status:        "queued",
		CorrelationID: correlationID,
		AttendeeIDs:   datatypes.JSON(encodedIDs),
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&job).Error; err != nil {
			return err
		}
		if kind == "print" {
			if err := tx.Model(&database.Attendee{}).
				Where("id IN ? AND event_id = ?", attendeeIDs, event.ID).
				Update("badge_printed", true).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		Internal(c, "failed to create print job")
		return
	}

	payload := tasks.BadgeBatchPayload{
		JobID:         job.ID,
		EventID:       event.ID,
		AttendeeIDs:   attendeeIDs,
		CorrelationID: correlationID,
	}

	var task *asynq.Task
	if kind == "print" {
		task, err = tasks.NewBadgePrintTask(payload)
	} else {
		task, err = tasks.NewBadgeExportTask(payload)
	}
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5))
	if err != nil {
		Internal(c, "failed to enqueue badge batch")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "badge batch accepted",
		"job_id":  job.ID,
		"task_id": info.ID,
	})
}

// GetJob 返回打印/导出任务的状态。
func (h *PrintHandler) GetJob(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	job, err := h.jobForUser(c, userID)
	if err != nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":         job.ID,
		"kind":           job.Kind,
		"status":         job.Status,
		"correlation_id": job.CorrelationID,
		"error_message":  job.ErrorMessage,
	})
}

// GetDownloadLink 生成任务产物 PDF 的预签名下载链接。
func (h *PrintHandler) GetDownloadLink(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	job, err := h.jobForUser(c, userID)
	if err != nil {
		return
	}

	if job.PdfObjectKey == "" {
		Conflict(c, "pdf not ready")
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(c.Request.Context(), job.PdfObjectKey, 5*time.Minute)
	if err != nil {
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

var errUnknownAttendee = errors.New("attendee does not belong to event")

// resolveAttendeeIDs 校验所选参会者归属；传空表示整场活动，按录入顺序处理。
func (h *PrintHandler) resolveAttendeeIDs(ctx context.Context, eventID uint, requested []uint) ([]uint, error) {
	if len(requested) == 0 {
		var ids []uint
		if err := h.db.WithContext(ctx).
			Model(&database.Attendee{}).
			Where("event_id = ?", eventID).
			Order("id ASC").
			Pluck("id", &ids).Error; err != nil {
			return nil, err
		}
		return ids, nil
	}

	var known []uint
	if err := h.db.WithContext(ctx).
		Model(&database.Attendee{}).
		Where("id IN ? AND event_id = ?", requested, eventID).
		Pluck("id", &known).Error; err != nil {
		return nil, err
	}

	knownSet := make(map[uint]struct{}, len(known))
	for _, id := range known {
		knownSet[id] = struct{}{}
	}

	// 保留请求中的顺序，它决定 PDF 的页序。
	ordered := make([]uint, 0, len(requested))
	seen := make(map[uint]struct{}, len(requested))
	for _, id := range requested {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := knownSet[id]; !ok {
			return nil, errUnknownAttendee
		}
		ordered = append(ordered, id)
	}
	return ordered, nil
}

// jobForUser 校验任务归属。出错时已写入响应。
func (h *PrintHandler) jobForUser(c *gin.Context, userID uint) (*database.PrintJob, error) {
	ctx := c.Request.Context()
	event, err := eventForUser(ctx, h.db, c.Param("id"), userID)
	if err != nil {
		respondEventLookupError(c, err)
		return nil, err
	}

	jobID, err := parseUintParam(c.Param("jobID"))
	if err != nil {
		BadRequest(c, "invalid job id")
		return nil, err
	}

	var job database.PrintJob
	if err := h.db.WithContext(ctx).
		Where("id = ? AND event_id = ?", jobID, event.ID).
		First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "job not found")
		} else {
			Internal(c, "failed to query job")
		}
		return nil, err
	}
	return &job, nil
}
