package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"eventy/internal/database"
)

// EventHandler 负责活动的增删改查。
type EventHandler struct {
	db *gorm.DB
}

func NewEventHandler(db *gorm.DB) *EventHandler {
	return &EventHandler{db: db}
}

var errInvalidEventID = errors.New("invalid event id")

type eventRequest struct {
	Name           string    `json:"name" binding:"required,max=255"`
	Location       string    `json:"location" binding:"max=255"`
	StartsAt       time.Time `json:"starts_at" binding:"required"`
	EndsAt         time.Time `json:"ends_at" binding:"required"`
	BrandPrimary   string    `json:"brand_primary" binding:"max=16"`
	BrandSecondary string    `json:"brand_secondary" binding:"max=16"`
}

type eventResponse struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Location       string    `json:"location"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	BrandPrimary   string    `json:"brand_primary,omitempty"`
	BrandSecondary string    `json:"brand_secondary,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateEvent 创建新活动。
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if !req.EndsAt.After(req.StartsAt) {
		BadRequest(c, "end time must be after start time")
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	event := database.Event{
		Name:           req.Name,
		Location:       req.Location,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		BrandPrimary:   req.BrandPrimary,
		BrandSecondary: req.BrandSecondary,
		UserID:         userID,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&event).Error; err != nil {
		Internal(c, "failed to create event")
		return
	}

	c.JSON(http.StatusCreated, newEventResponse(event))
}

// ListEvents 列出当前用户的全部活动。
func (h *EventHandler) ListEvents(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var events []database.Event
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("starts_at DESC").
		Find(&events).Error; err != nil {
		Internal(c, "failed to list events")
		return
	}

	items := make([]eventResponse, 0, len(events))
	for _, ev := range events {
		items = append(items, newEventResponse(ev))
	}
	c.JSON(http.StatusOK, items)
}

// GetEvent 返回指定活动。
func (h *EventHandler) GetEvent(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	event, err := eventForUser(c.Request.Context(), h.db, c.Param("id"), userID)
	if err != nil {
		respondEventLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, newEventResponse(*event))
}

// UpdateEvent 覆盖指定活动的基本信息与品牌色。
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if !req.EndsAt.After(req.StartsAt) {
		BadRequest(c, "end time must be after start time")
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

	updates := map[string]any{
		"name":            req.Name,
		"location":        req.Location,
		"starts_at":       req.StartsAt,
		"ends_at":         req.EndsAt,
		"brand_primary":   req.BrandPrimary,
		"brand_secondary": req.BrandSecondary,
	}
	if err := h.db.WithContext(ctx).Model(event).Updates(updates).Error; err != nil {
		Internal(c, "failed to update event")
		return
	}
	if err := h.db.WithContext(ctx).First(event, event.ID).Error; err != nil {
		Internal(c, "failed to reload event")
		return
	}

	c.JSON(http.StatusOK, newEventResponse(*event))
}

// DeleteEvent 删除指定活动。
func (h *EventHandler) DeleteEvent(c *gin.Context) {
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

	if err := h.db.WithContext(ctx).Delete(&database.Event{}, event.ID).Error; err != nil {
		Internal(c, "failed to delete event")
		return
	}

	c.Status(http.StatusNoContent)
}

func newEventResponse(event database.Event) eventResponse {
	return eventResponse{
		ID:             event.ID,
		Name:           event.Name,
		Location:       event.Location,
		StartsAt:       event.StartsAt,
		EndsAt:         event.EndsAt,
		BrandPrimary:   event.BrandPrimary,
		BrandSecondary: event.BrandSecondary,
		CreatedAt:      event.CreatedAt,
		UpdatedAt:      event.UpdatedAt,
	}
}

// eventForUser 解析路径参数并校验活动归属。
func eventForUser(ctx context.Context, db *gorm.DB, idParam string, userID uint) (*database.Event, error) {
	eventID, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		return nil, errInvalidEventID
	}

	var event database.Event
	if err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", uint(eventID), userID).
		First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func respondEventLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errInvalidEventID):
		BadRequest(c, "invalid event id")
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "event not found")
	default:
		Internal(c, "failed to query event")
	}
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}
