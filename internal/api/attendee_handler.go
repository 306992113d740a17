package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"eventy/internal/database"
)

// AttendeeHandler 负责参会者的录入与查询。
type AttendeeHandler struct {
	db *gorm.DB
}

func NewAttendeeHandler(db *gorm.DB) *AttendeeHandler {
	return &AttendeeHandler{db: db}
}

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

type attendeeRequest struct {
	FullName       string `json:"full_name" binding:"required,max=255"`
	Email          string `json:"email" binding:"omitempty,email,max=255"`
	Company        string `json:"company" binding:"max=255"`
	Title          string `json:"title" binding:"max=255"`
	PhotoObjectKey string `json:"photo_object_key" binding:"max=512"`
}

type attendeeAttributes struct {
	FullName       string    `json:"full_name"`
	Email          string    `json:"email,omitempty"`
	Company        string    `json:"company,omitempty"`
	Title          string    `json:"title,omitempty"`
	Token          string    `json:"token"`
	PhotoObjectKey string    `json:"photo_object_key,omitempty"`
	BadgePrinted   bool      `json:"badge_printed"`
	CreatedAt      time.Time `json:"created_at"`
}

type attendeeResource struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Attributes attendeeAttributes `json:"attributes"`
}

type paginationMeta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// CreateAttendee 录入一名参会者并生成二维码令牌。
func (h *AttendeeHandler) CreateAttendee(c *gin.Context) {
	var req attendeeRequest
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

	if req.PhotoObjectKey != "" && !isValidUserAssetObjectKey(userID, req.PhotoObjectKey) {
		Forbidden(c, "invalid photo object key")
		return
	}

	attendee := database.Attendee{
		FullName:       req.FullName,
		Email:          req.Email,
		Company:        req.Company,
		Title:          req.Title,
		Token:          uuid.NewString(),
		PhotoObjectKey: req.PhotoObjectKey,
		EventID:        event.ID,
	}
	if err := h.db.WithContext(ctx).Create(&attendee).Error; err != nil {
		Internal(c, "failed to create attendee")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": newAttendeeResource(attendee)})
}

// ListAttendees 分页返回活动的参会者列表。
func (h *AttendeeHandler) ListAttendees(c *gin.Context) {
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

	page, perPage := parsePagination(c)

	var total int64
	if err := h.db.WithContext(ctx).
		Model(&database.Attendee{}).
		Where("event_id = ?", event.ID).
		Count(&total).Error; err != nil {
		Internal(c, "failed to count attendees")
		return
	}

	var attendees []database.Attendee
	if err := h.db.WithContext(ctx).
		Where("event_id = ?", event.ID).
		Order("id ASC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&attendees).Error; err != nil {
		Internal(c, "failed to list attendees")
		return
	}

	data := make([]attendeeResource, 0, len(attendees))
	for _, a := range attendees {
		data = append(data, newAttendeeResource(a))
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": gin.H{
			"pagination": paginationMeta{
				Page:       page,
				PerPage:    perPage,
				Total:      total,
				TotalPages: totalPages,
			},
		},
	})
}

// UpdateAttendee 更新参会者信息。
func (h *AttendeeHandler) UpdateAttendee(c *gin.Context) {
	var req attendeeRequest
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
	attendee, err := h.attendeeForUser(c, userID)
	if err != nil {
		return
	}

	if req.PhotoObjectKey != "" && !isValidUserAssetObjectKey(userID, req.PhotoObjectKey) {
		Forbidden(c, "invalid photo object key")
		return
	}

	updates := map[string]any{
		"full_name":        req.FullName,
		"email":            req.Email,
		"company":          req.Company,
		"title":            req.Title,
		"photo_object_key": req.PhotoObjectKey,
	}
	if err := h.db.WithContext(ctx).Model(attendee).Updates(updates).Error; err != nil {
		Internal(c, "failed to update attendee")
		return
	}
	if err := h.db.WithContext(ctx).First(attendee, attendee.ID).Error; err != nil {
		Internal(c, "failed to reload attendee")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newAttendeeResource(*attendee)})
}

// DeleteAttendee 删除参会者。
func (h *AttendeeHandler) DeleteAttendee(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	attendee, err := h.attendeeForUser(c, userID)
	if err != nil {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Delete(&database.Attendee{}, attendee.ID).Error; err != nil {
		Internal(c, "failed to delete attendee")
		return
	}

	c.Status(http.StatusNoContent)
}

// attendeeForUser 校验参会者归属于当前用户的活动。出错时已写入响应。
func (h *AttendeeHandler) attendeeForUser(c *gin.Context, userID uint) (*database.Attendee, error) {
	ctx := c.Request.Context()
	event, err := eventForUser(ctx, h.db, c.Param("id"), userID)
	if err != nil {
		respondEventLookupError(c, err)
		return nil, err
	}

	attendeeID, err := parseUintParam(c.Param("attendeeID"))
	if err != nil {
		BadRequest(c, "invalid attendee id")
		return nil, err
	}

	var attendee database.Attendee
	if err := h.db.WithContext(ctx).
		Where("id = ? AND event_id = ?", attendeeID, event.ID).
		First(&attendee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "attendee not found")
		} else {
			Internal(c, "failed to query attendee")
		}
		return nil, err
	}
	return &attendee, nil
}

func newAttendeeResource(a database.Attendee) attendeeResource {
	return attendeeResource{
		ID:   strconv.FormatUint(uint64(a.ID), 10),
		Type: "attendee",
		Attributes: attendeeAttributes{
			FullName:       a.FullName,
			Email:          a.Email,
			Company:        a.Company,
			Title:          a.Title,
			Token:          a.Token,
			PhotoObjectKey: a.PhotoObjectKey,
			BadgePrinted:   a.BadgePrinted,
			CreatedAt:      a.CreatedAt,
		},
	}
}

func parsePagination(c *gin.Context) (page, perPage int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		page = 1
	}
	perPage, err = strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPageSize)))
	if err != nil || perPage <= 0 {
		perPage = defaultPageSize
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}
	return page, perPage
}
