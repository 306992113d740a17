package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"eventy/internal/database"
)

func TestCreateSessionRejectsEndBeforeStart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newAPITestDB(t)
	seedEvent(t, db, 1)

	h := NewAgendaHandler(db)

	body := agendaSessionRequest{
		Title:    "Opening Keynote",
		StartsAt: time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
	}

	w := httptest.NewRecorder()
	c := testContext(w, jsonRequest(t, http.MethodPost, "/v1/events/1/agenda", body), 1,
		gin.Params{{Key: "id", Value: "1"}})

	h.CreateSession(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "end time must be after start time") {
		t.Fatalf("unexpected error message: %s", w.Body.String())
	}

	// 校验失败不能留下任何记录。
	var count int64
	if err := db.Model(&database.AgendaSession{}).Count(&count).Error; err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no sessions persisted, got %d", count)
	}
}

func TestCreateSessionRejectsFreePrice(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newAPITestDB(t)
	seedEvent(t, db, 1)

	h := NewAgendaHandler(db)

	body := agendaSessionRequest{
		Title:    "Paid Workshop",
		StartsAt: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		PayBy:    "cash",
	}

	w := httptest.NewRecorder()
	c := testContext(w, jsonRequest(t, http.MethodPost, "/v1/events/1/agenda", body), 1,
		gin.Params{{Key: "id", Value: "1"}})

	h.CreateSession(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateSessionPersistsPaidSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newAPITestDB(t)
	seedEvent(t, db, 1)

	h := NewAgendaHandler(db)

	body := agendaSessionRequest{
		Title:      "Paid Workshop",
		Location:   "Room 2",
		StartsAt:   time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
		EndsAt:     time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		SpeakerIDs: []uint{7},
		Display:    true,
		PayBy:      "online",
		PriceCents: 4900,
		Currency:   "EUR",
	}

	w := httptest.NewRecorder()
	c := testContext(w, jsonRequest(t, http.MethodPost, "/v1/events/1/agenda", body), 1,
		gin.Params{{Key: "id", Value: "1"}})

	h.CreateSession(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var record database.AgendaSession
	if err := db.First(&record).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	if record.PayBy != "online" || record.PriceCents != 4900 || record.Currency != "EUR" {
		t.Fatalf("unexpected persisted session: %+v", record)
	}
}
