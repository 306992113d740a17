package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"

	"eventy/internal/database"
	"eventy/internal/storage"
)

// fakeAssetStore 记录删除调用，供无 MinIO 环境下的处理器测试使用。
type fakeAssetStore struct {
	objects []storage.ObjectMeta
	deleted []string
}

func (f *fakeAssetStore) UploadFile(_ context.Context, objectName string, _ io.Reader, size int64, _ string) (*minio.UploadInfo, error) {
	f.objects = append(f.objects, storage.ObjectMeta{Key: objectName, Size: size, LastModified: time.Now()})
	return &minio.UploadInfo{Key: objectName, Size: size}, nil
}

func (f *fakeAssetStore) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://example.invalid/" + objectKey, nil
}

func (f *fakeAssetStore) ListObjects(_ context.Context, prefix string, limit int) ([]storage.ObjectMeta, error) {
	out := make([]storage.ObjectMeta, 0, len(f.objects))
	for _, obj := range f.objects {
		if len(out) == limit {
			break
		}
		if len(obj.Key) >= len(prefix) && obj.Key[:len(prefix)] == prefix {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (f *fakeAssetStore) DeleteObject(_ context.Context, objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	kept := f.objects[:0]
	for _, obj := range f.objects {
		if obj.Key != objectKey {
			kept = append(kept, obj)
		}
	}
	f.objects = kept
	return nil
}

func TestDeleteAssetRemovesObjectAndRecord(t *testing.T) {
	db := newAPITestDB(t)
	store := &fakeAssetStore{objects: []storage.ObjectMeta{{Key: "user-assets/1/a.png"}}}
	if err := db.Create(&database.Asset{UserID: 1, ObjectKey: "user-assets/1/a.png"}).Error; err != nil {
		t.Fatalf("seed asset: %v", err)
	}

	h := NewAssetHandler(db, store, nil, nil, "", 0, 0, 0)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/v1/assets?key=user-assets/1/a.png", nil)
	h.DeleteAsset(testContext(w, req, 1, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(store.deleted) != 1 || store.deleted[0] != "user-assets/1/a.png" {
		t.Fatalf("object not removed from store: %v", store.deleted)
	}
	var count int64
	if err := db.Model(&database.Asset{}).Where("object_key = ?", "user-assets/1/a.png").Count(&count).Error; err != nil {
		t.Fatalf("count assets: %v", err)
	}
	if count != 0 {
		t.Fatalf("asset record still present: %d", count)
	}
}

func TestDeleteAssetRejectsForeignKey(t *testing.T) {
	db := newAPITestDB(t)
	store := &fakeAssetStore{objects: []storage.ObjectMeta{{Key: "user-assets/2/b.png"}}}

	h := NewAssetHandler(db, store, nil, nil, "", 0, 0, 0)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/v1/assets?key=user-assets/2/b.png", nil)
	h.DeleteAsset(testContext(w, req, 1, nil))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("store must stay untouched on denied delete: %v", store.deleted)
	}
}
