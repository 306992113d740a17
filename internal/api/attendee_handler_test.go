package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"eventy/internal/database"
)

func seedAttendees(t *testing.T, db *gorm.DB, eventID uint, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		attendee := database.Attendee{
			FullName: "Attendee " + strconv.Itoa(i+1),
			Token:    uuid.NewString(),
			EventID:  eventID,
		}
		if err := db.Create(&attendee).Error; err != nil {
			t.Fatalf("seed attendee: %v", err)
		}
	}
}

func TestListAttendeesPaginationEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newAPITestDB(t)
	event := seedEvent(t, db, 1)
	seedAttendees(t, db, event.ID, 3)

	h := NewAttendeeHandler(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/events/1/attendees?page=2&per_page=2", nil)
	c := testContext(w, req, 1, gin.Params{{Key: "id", Value: "1"}})

	h.ListAttendees(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data []struct {
			ID         string `json:"id"`
			Type       string `json:"type"`
			Attributes struct {
				FullName     string `json:"full_name"`
				Token        string `json:"token"`
				BadgePrinted bool   `json:"badge_printed"`
			} `json:"attributes"`
		} `json:"data"`
		Meta struct {
			Pagination paginationMeta `json:"pagination"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(resp.Data) != 1 {
		t.Fatalf("expected 1 attendee on page 2, got %d", len(resp.Data))
	}
	if resp.Data[0].Type != "attendee" {
		t.Fatalf("expected resource type attendee, got %q", resp.Data[0].Type)
	}
	if resp.Data[0].Attributes.FullName != "Attendee 3" {
		t.Fatalf("expected Attendee 3, got %q", resp.Data[0].Attributes.FullName)
	}
	if resp.Meta.Pagination.Total != 3 || resp.Meta.Pagination.TotalPages != 2 {
		t.Fatalf("unexpected pagination meta: %+v", resp.Meta.Pagination)
	}
	if resp.Meta.Pagination.Page != 2 || resp.Meta.Pagination.PerPage != 2 {
		t.Fatalf("unexpected page/per_page: %+v", resp.Meta.Pagination)
	}
}

func TestListAttendeesClampsPerPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newAPITestDB(t)
	seedEvent(t, db, 1)

	h := NewAttendeeHandler(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/events/1/attendees?per_page=9999", nil)
	c := testContext(w, req, 1, gin.Params{{Key: "id", Value: "1"}})

	h.ListAttendees(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Meta struct {
			Pagination paginationMeta `json:"pagination"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Meta.Pagination.PerPage != maxPageSize {
		t.Fatalf("expected per_page clamped to %d, got %d", maxPageSize, resp.Meta.Pagination.PerPage)
	}
}

func TestListAttendeesRejectsForeignEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newAPITestDB(t)
	seedEvent(t, db, 2) // owned by another user

	h := NewAttendeeHandler(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/events/1/attendees", nil)
	c := testContext(w, req, 1, gin.Params{{Key: "id", Value: "1"}})

	h.ListAttendees(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}
