package templates

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"eventy/internal/badge"
	"eventy/internal/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.Template{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func badgeRecord(t *testing.T, name string, active bool) database.Template {
	t.Helper()
	content := badge.NewCustomTemplate(name)
	raw, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	return database.Template{
		Name:     name,
		Kind:     string(badge.KindCustom),
		Type:     TypeBadge,
		Content:  raw,
		IsActive: active,
	}
}

func TestSaveAllRoundTrip(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))
	ctx := context.Background()

	// 非默认布局：关闭照片槽、挪动姓名槽、改颜色。读回后必须逐字段一致。
	content := badge.NewCustomTemplate("Speaker Badge")
	content.Slots.Photo.Enabled = false
	content.Slots.Name.Position = badge.Position{X: 30.5, Y: 212}
	content.Slots.Name.Color = "#ba0f0f"
	content.Slots.Name.Alignment = badge.AlignLeft
	content.HeaderColor = "#014421"
	raw, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	in := database.Template{
		Name:    "Speaker Badge",
		Kind:    string(badge.KindCustom),
		Type:    TypeBadge,
		Content: raw,
	}
	if _, err := repo.SaveAll(ctx, 7, []database.Template{in}); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := repo.List(ctx, 7)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 template, got %d", len(out))
	}

	var want, got badge.Template
	if err := json.Unmarshal(in.Content, &want); err != nil {
		t.Fatalf("unmarshal input: %v", err)
	}
	if err := json.Unmarshal(out[0].Content, &got); err != nil {
		t.Fatalf("unmarshal stored: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestSaveAllReplacesCollection(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))
	ctx := context.Background()

	first := []database.Template{
		badgeRecord(t, "One", false),
		badgeRecord(t, "Two", false),
	}
	if _, err := repo.SaveAll(ctx, 1, first); err != nil {
		t.Fatalf("save first: %v", err)
	}

	second := []database.Template{badgeRecord(t, "Only", false)}
	if _, err := repo.SaveAll(ctx, 1, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	out, err := repo.List(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 || out[0].Name != "Only" {
		t.Fatalf("collection not replaced: %+v", out)
	}
}

func TestSaveAllPreservesOrder(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))
	ctx := context.Background()

	names := []string{"Alpha", "Bravo", "Charlie"}
	items := make([]database.Template, 0, len(names))
	for _, n := range names {
		items = append(items, badgeRecord(t, n, false))
	}
	if _, err := repo.SaveAll(ctx, 3, items); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := repo.List(ctx, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, n := range names {
		if out[i].Name != n {
			t.Fatalf("order not preserved at %d: got %q want %q", i, out[i].Name, n)
		}
	}
}

func TestSaveAllKeepsSingleActive(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))
	ctx := context.Background()

	items := []database.Template{
		badgeRecord(t, "A", true),
		badgeRecord(t, "B", true),
	}
	saved, err := repo.SaveAll(ctx, 2, items)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	active := 0
	for _, s := range saved {
		if s.IsActive {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly one active template, got %d", active)
	}
}

func TestSetActiveIdempotent(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))
	ctx := context.Background()

	saved, err := repo.SaveAll(ctx, 5, []database.Template{
		badgeRecord(t, "A", false),
		badgeRecord(t, "B", false),
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	// 连续两次选择同一模板：仍恰有一个 active。
	for i := 0; i < 2; i++ {
		if err := repo.SetActive(ctx, 5, saved[1].ID); err != nil {
			t.Fatalf("set active (round %d): %v", i, err)
		}
	}

	out, err := repo.List(ctx, 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	active := 0
	for _, o := range out {
		if o.IsActive {
			active++
			if o.Name != "B" {
				t.Fatalf("wrong template active: %q", o.Name)
			}
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly one active template, got %d", active)
	}

	got, err := repo.Active(ctx, 5)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if got.ID != saved[1].ID {
		t.Fatalf("Active returned %d, want %d", got.ID, saved[1].ID)
	}
}

func TestSetActiveUnknownTemplate(t *testing.T) {
	repo := NewGormRepository(newTestDB(t))
	if err := repo.SetActive(context.Background(), 9, 1234); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
