package templates

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"eventy/internal/database"
)

// Template type discriminators for the Content payload.
const (
	TypeBadge = "badge"
	TypeForm  = "form"
)

var ErrNotFound = errors.New("template not found")

// Repository is the persistence boundary for an event's template collection.
// Callers always read the full list, mutate in memory, and write the full list
// back; there is no partial update. Concurrent writers are last-writer-wins;
// the collection carries no version column on purpose.
type Repository interface {
	List(ctx context.Context, eventID uint) ([]database.Template, error)
	SaveAll(ctx context.Context, eventID uint, items []database.Template) ([]database.Template, error)
	SetActive(ctx context.Context, eventID, templateID uint) error
	Active(ctx context.Context, eventID uint) (*database.Template, error)
}

// GormRepository 是 Repository 的 GORM 实现。
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// List 返回活动的全部模板，按创建顺序排列。
func (r *GormRepository) List(ctx context.Context, eventID uint) ([]database.Template, error) {
	var items []database.Template
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list templates for event %d: %w", eventID, err)
	}
	return items, nil
}

// SaveAll replaces the event's whole template collection in one transaction.
// At most one item may stay active; when the caller marks several, the first
// one wins.
func (r *GormRepository) SaveAll(ctx context.Context, eventID uint, items []database.Template) ([]database.Template, error) {
	saved := make([]database.Template, 0, len(items))

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("event_id = ?", eventID).
			Delete(&database.Template{}).Error; err != nil {
			return fmt.Errorf("clear templates for event %d: %w", eventID, err)
		}

		activeSeen := false
		for _, item := range items {
			record := database.Template{
				Name:     item.Name,
				Kind:     item.Kind,
				Type:     item.Type,
				Content:  item.Content,
				IsActive: item.IsActive && !activeSeen,
				EventID:  eventID,
			}
			if record.IsActive {
				activeSeen = true
			}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("save template %q: %w", item.Name, err)
			}
			saved = append(saved, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// SetActive 将指定模板标记为活动的打印默认模板。重复调用是幂等的：
// 同一活动始终恰有一个 active 模板。
func (r *GormRepository) SetActive(ctx context.Context, eventID, templateID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target database.Template
		if err := tx.Where("id = ? AND event_id = ?", templateID, eventID).
			First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("query template %d: %w", templateID, err)
		}

		if err := tx.Model(&database.Template{}).
			Where("event_id = ? AND id <> ?", eventID, templateID).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("clear active templates for event %d: %w", eventID, err)
		}
		if err := tx.Model(&database.Template{}).
			Where("id = ?", templateID).
			Update("is_active", true).Error; err != nil {
			return fmt.Errorf("mark template %d active: %w", templateID, err)
		}
		return nil
	})
}

// Active 返回活动的默认打印模板。
func (r *GormRepository) Active(ctx context.Context, eventID uint) (*database.Template, error) {
	var item database.Template
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND is_active = ?", eventID, true).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query active template for event %d: %w", eventID, err)
	}
	return &item, nil
}
