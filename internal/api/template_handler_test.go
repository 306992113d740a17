package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"eventy/internal/badge"
	"eventy/internal/database"
	"eventy/internal/templates"
)

type fakePresigner struct{}

func (fakePresigner) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://example.invalid/" + objectKey, nil
}

func newAPITestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&database.User{},
		&database.Event{},
		&database.Template{},
		&database.Attendee{},
		&database.AgendaSession{},
		&database.PrintJob{},
		&database.Asset{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedEvent(t *testing.T, db *gorm.DB, userID uint) database.Event {
	t.Helper()
	event := database.Event{
		Name:           "DevConf",
		Location:       "Hall 4",
		StartsAt:       time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
		EndsAt:         time.Date(2026, 10, 2, 18, 0, 0, 0, time.UTC),
		BrandPrimary:   "#123456",
		BrandSecondary: "#654321",
		UserID:         userID,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return event
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func testContext(w *httptest.ResponseRecorder, req *http.Request, userID uint, params gin.Params) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("userID", userID)
	c.Params = params
	return c
}

func badgeContent(t *testing.T) datatypes.JSON {
	t.Helper()
	raw, err := json.Marshal(badge.NewCustomTemplate("Crew"))
	if err != nil {
		t.Fatalf("marshal badge template: %v", err)
	}
	return datatypes.JSON(raw)
}

func TestSaveTemplatesRejectsFormWithoutFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newAPITestDB(t)
	event := seedEvent(t, db, 1)
	repo := templates.NewGormRepository(db)

	seeded, err := repo.SaveAll(context.Background(), event.ID, []database.Template{{
		Name:    "Crew",
		Kind:    string(badge.KindCustom),
		Type:    templates.TypeBadge,
		Content: badgeContent(t),
	}})
	if err != nil {
		t.Fatalf("seed templates: %v", err)
	}

	h := NewTemplateHandler(db, repo, fakePresigner{})

	body := saveTemplatesRequest{Templates: []templateItem{{
		Name:    "Registration",
		Type:    templates.TypeForm,
		Content: datatypes.JSON(`{"fields":[]}`),
	}}}

	w := httptest.NewRecorder()
	c := testContext(w, jsonRequest(t, http.MethodPut, "/v1/events/1/templates", body), 1,
		gin.Params{{Key: "id", Value: "1"}})

	h.SaveTemplates(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "please add fields") {
		t.Fatalf("expected field error message, got %s", w.Body.String())
	}

	// 校验失败时集合必须保持原样。
	after, err := repo.List(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("list templates: %v", err)
	}
	if len(after) != len(seeded) || after[0].Name != "Crew" {
		t.Fatalf("collection changed after rejected save: %+v", after)
	}
}

func TestSaveTemplatesAllowsPredefinedFormWithoutFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newAPITestDB(t)
	event := seedEvent(t, db, 1)
	repo := templates.NewGormRepository(db)
	h := NewTemplateHandler(db, repo, fakePresigner{})

	// 零字段限制只针对自定义表单；预置表单布局允许空字段集。
	body := saveTemplatesRequest{Templates: []templateItem{{
		Name:    "Starter Form",
		Kind:    string(badge.KindPredefined),
		Type:    templates.TypeForm,
		Content: datatypes.JSON(`{"fields":[]}`),
	}}}

	w := httptest.NewRecorder()
	c := testContext(w, jsonRequest(t, http.MethodPut, "/v1/events/1/templates", body), 1,
		gin.Params{{Key: "id", Value: "1"}})

	h.SaveTemplates(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	after, err := repo.List(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("list templates: %v", err)
	}
	if len(after) != 1 || after[0].Name != "Starter Form" {
		t.Fatalf("predefined form not saved: %+v", after)
	}
}

func TestSaveTemplatesRejectsUnnamedTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newAPITestDB(t)
	seedEvent(t, db, 1)
	repo := templates.NewGormRepository(db)
	h := NewTemplateHandler(db, repo, fakePresigner{})

	body := saveTemplatesRequest{Templates: []templateItem{{
		Name:    "",
		Kind:    string(badge.KindCustom),
		Type:    templates.TypeBadge,
		Content: badgeContent(t),
	}}}

	w := httptest.NewRecorder()
	c := testContext(w, jsonRequest(t, http.MethodPut, "/v1/events/1/templates", body), 1,
		gin.Params{{Key: "id", Value: "1"}})

	h.SaveTemplates(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestSetActiveTemplateIdempotent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newAPITestDB(t)
	event := seedEvent(t, db, 1)
	repo := templates.NewGormRepository(db)

	saved, err := repo.SaveAll(context.Background(), event.ID, []database.Template{
		{Name: "A", Kind: string(badge.KindCustom), Type: templates.TypeBadge, Content: badgeContent(t)},
		{Name: "B", Kind: string(badge.KindCustom), Type: templates.TypeBadge, Content: badgeContent(t)},
	})
	if err != nil {
		t.Fatalf("seed templates: %v", err)
	}

	h := NewTemplateHandler(db, repo, fakePresigner{})
	target := saved[1]

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/events/1/templates/activate", nil)
		c := testContext(w, req, 1, gin.Params{
			{Key: "id", Value: "1"},
			{Key: "templateID", Value: strconv.FormatUint(uint64(target.ID), 10)},
		})

		h.SetActiveTemplate(c)
		c.Writer.WriteHeaderNow()

		if w.Code != http.StatusNoContent {
			t.Fatalf("attempt %d: expected 204 got %d body=%s", i+1, w.Code, w.Body.String())
		}
	}

	var activeCount int64
	if err := db.Model(&database.Template{}).
		Where("event_id = ? AND is_active = ?", event.ID, true).
		Count(&activeCount).Error; err != nil {
		t.Fatalf("count active: %v", err)
	}
	if activeCount != 1 {
		t.Fatalf("expected exactly one active template, got %d", activeCount)
	}
}

func TestReviewTemplateRendersPreview(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newAPITestDB(t)
	seedEvent(t, db, 1)
	repo := templates.NewGormRepository(db)
	h := NewTemplateHandler(db, repo, fakePresigner{})

	body := reviewTemplateRequest{Content: badgeContent(t)}

	w := httptest.NewRecorder()
	c := testContext(w, jsonRequest(t, http.MethodPost, "/v1/events/1/templates/review", body), 1,
		gin.Params{{Key: "id", Value: "1"}})

	h.ReviewTemplate(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		HTML     string  `json:"html"`
		WidthPx  float64 `json:"width_px"`
		HeightPx float64 `json:"height_px"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp.HTML, "badge-canvas") {
		t.Fatalf("expected rendered canvas, got %q", resp.HTML)
	}
	if resp.WidthPx <= 0 || resp.HeightPx <= 0 {
		t.Fatalf("expected positive canvas size, got %fx%f", resp.WidthPx, resp.HeightPx)
	}
}
