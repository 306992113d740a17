package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"eventy/internal/agenda"
	"eventy/internal/database"
)

// AgendaHandler 负责活动议程环节的维护。所有校验在入库之前完成。
type AgendaHandler struct {
	db *gorm.DB
}

func NewAgendaHandler(db *gorm.DB) *AgendaHandler {
	return &AgendaHandler{db: db}
}

type agendaSessionRequest struct {
	Title         string    `json:"title" binding:"required,max=255"`
	Location      string    `json:"location" binding:"max=255"`
	StartsAt      time.Time `json:"starts_at" binding:"required"`
	EndsAt        time.Time `json:"ends_at" binding:"required"`
	SpeakerIDs    []uint    `json:"speaker_ids"`
	Display       bool      `json:"display"`
	RequireEnroll bool      `json:"require_enroll"`
	PayBy         string    `json:"pay_by"`
	PriceCents    int64     `json:"price_cents"`
	Currency      string    `json:"currency" binding:"max=8"`
}

type agendaSessionResponse struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Location      string    `json:"location,omitempty"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	SpeakerIDs    []uint    `json:"speaker_ids"`
	Display       bool      `json:"display"`
	RequireEnroll bool      `json:"require_enroll"`
	PayBy         string    `json:"pay_by"`
	PriceCents    int64     `json:"price_cents,omitempty"`
	Currency      string    `json:"currency,omitempty"`
}

func (r agendaSessionRequest) toDomain() agenda.Session {
	payBy := agenda.PayBy(r.PayBy)
	if r.PayBy == "" {
		payBy = agenda.PayFree
	}
	return agenda.Session{
		Title:         r.Title,
		Location:      r.Location,
		StartsAt:      r.StartsAt,
		EndsAt:        r.EndsAt,
		SpeakerIDs:    r.SpeakerIDs,
		Display:       r.Display,
		RequireEnroll: r.RequireEnroll,
		PayBy:         payBy,
		PriceCents:    r.PriceCents,
		Currency:      r.Currency,
	}
}

// CreateSession 新增议程环节。校验失败时不会产生任何写入。
func (h *AgendaHandler) CreateSession(c *gin.Context) {
	var req agendaSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	session := req.toDomain()
	if err := agenda.Validate(session); err != nil {
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

	speakerIDs, err := json.Marshal(session.SpeakerIDs)
	if err != nil {
		Internal(c, "failed to encode speaker ids")
		return
	}

	record := database.AgendaSession{
		Title:         session.Title,
		Location:      session.Location,
		StartsAt:      session.StartsAt,
		EndsAt:        session.EndsAt,
		SpeakerIDs:    datatypes.JSON(speakerIDs),
		Display:       session.Display,
		RequireEnroll: session.RequireEnroll,
		PayBy:         string(session.PayBy),
		PriceCents:    session.PriceCents,
		Currency:      session.Currency,
		EventID:       event.ID,
	}
	if err := h.db.WithContext(ctx).Create(&record).Error; err != nil {
		Internal(c, "failed to create session")
		return
	}

	c.JSON(http.StatusCreated, newAgendaSessionResponse(record))
}

// ListSessions 按开始时间返回活动的议程。
func (h *AgendaHandler) ListSessions(c *gin.Context) {
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

	var records []database.AgendaSession
	if err := h.db.WithContext(ctx).
		Where("event_id = ?", event.ID).
		Order("starts_at ASC").
		Find(&records).Error; err != nil {
		Internal(c, "failed to list sessions")
		return
	}

	items := make([]agendaSessionResponse, 0, len(records))
	for _, r := range records {
		items = append(items, newAgendaSessionResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": items})
}

// UpdateSession 覆盖议程环节。校验失败时数据保持原状。
func (h *AgendaHandler) UpdateSession(c *gin.Context) {
	var req agendaSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	session := req.toDomain()
	if err := agenda.Validate(session); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	record, err := h.sessionForUser(c, userID)
	if err != nil {
		return
	}

	speakerIDs, err := json.Marshal(session.SpeakerIDs)
	if err != nil {
		Internal(c, "failed to encode speaker ids")
		return
	}

	updates := map[string]any{
		"title":          session.Title,
		"location":       session.Location,
		"starts_at":      session.StartsAt,
		"ends_at":        session.EndsAt,
		"speaker_ids":    datatypes.JSON(speakerIDs),
		"display":        session.Display,
		"require_enroll": session.RequireEnroll,
		"pay_by":         string(session.PayBy),
		"price_cents":    session.PriceCents,
		"currency":       session.Currency,
	}
	if err := h.db.WithContext(ctx).Model(record).Updates(updates).Error; err != nil {
		Internal(c, "failed to update session")
		return
	}
	if err := h.db.WithContext(ctx).First(record, record.ID).Error; err != nil {
		Internal(c, "failed to reload session")
		return
	}

	c.JSON(http.StatusOK, newAgendaSessionResponse(*record))
}

// DeleteSession 删除议程环节。
func (h *AgendaHandler) DeleteSession(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	record, err := h.sessionForUser(c, userID)
	if err != nil {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Delete(&database.AgendaSession{}, record.ID).Error; err != nil {
		Internal(c, "failed to delete session")
		return
	}

	c.Status(http.StatusNoContent)
}

// sessionForUser 校验议程环节归属。出错时已写入响应。
func (h *AgendaHandler) sessionForUser(c *gin.Context, userID uint) (*database.AgendaSession, error) {
	ctx := c.Request.Context()
	event, err := eventForUser(ctx, h.db, c.Param("id"), userID)
	if err != nil {
		respondEventLookupError(c, err)
		return nil, err
	}

	sessionID, err := parseUintParam(c.Param("sessionID"))
	if err != nil {
		BadRequest(c, "invalid session id")
		return nil, err
	}

	var record database.AgendaSession
	if err := h.db.WithContext(ctx).
		Where("id = ? AND event_id = ?", sessionID, event.ID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "session not found")
		} else {
			Internal(c, "failed to query session")
		}
		return nil, err
	}
	return &record, nil
}

func newAgendaSessionResponse(r database.AgendaSession) agendaSessionResponse {
	var speakerIDs []uint
	if len(r.SpeakerIDs) > 0 {
		_ = json.Unmarshal(r.SpeakerIDs, &speakerIDs)
	}
	return agendaSessionResponse{
		ID:            r.ID,
		Title:         r.Title,
		Location:      r.Location,
		StartsAt:      r.StartsAt,
		EndsAt:        r.EndsAt,
		SpeakerIDs:    speakerIDs,
		Display:       r.Display,
		RequireEnroll: r.RequireEnroll,
		PayBy:         r.PayBy,
		PriceCents:    r.PriceCents,
		Currency:      r.Currency,
	}
}
