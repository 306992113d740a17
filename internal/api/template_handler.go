package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"eventy/internal/badge"
	"eventy/internal/database"
	"eventy/internal/form"
	"eventy/internal/templates"
)

// TemplateHandler 负责徽章与表单模板的读写、激活与预览。
type TemplateHandler struct {
	db      *gorm.DB
	repo    templates.Repository
	storage presignedURLGenerator
}

// presignedURLGenerator 是预览背景图所需的最小存储接口。
type presignedURLGenerator interface {
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
}

func NewTemplateHandler(db *gorm.DB, repo templates.Repository, storageClient presignedURLGenerator) *TemplateHandler {
	return &TemplateHandler{db: db, repo: repo, storage: storageClient}
}

type templateItem struct {
	ID       uint           `json:"id,omitempty"`
	Name     string         `json:"name"`
	Kind     string         `json:"kind"`
	Type     string         `json:"type"`
	Content  datatypes.JSON `json:"content"`
	IsActive bool           `json:"is_active"`
}

type saveTemplatesRequest struct {
	Templates []templateItem `json:"templates"`
}

// ListTemplates 返回活动的全部模板。
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
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

	records, err := h.repo.List(ctx, event.ID)
	if err != nil {
		Internal(c, "failed to list templates")
		return
	}

	items := make([]templateItem, 0, len(records))
	for _, r := range records {
		items = append(items, templateItem{
			ID:       r.ID,
			Name:     r.Name,
			Kind:     r.Kind,
			Type:     r.Type,
			Content:  r.Content,
			IsActive: r.IsActive,
		})
	}
	c.JSON(http.StatusOK, gin.H{"templates": items})
}

// SaveTemplates replaces the event's whole template collection. Every item is
// validated before anything is written: one bad template rejects the request
// and leaves the stored collection untouched.
func (h *TemplateHandler) SaveTemplates(c *gin.Context) {
	var req saveTemplatesRequest
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

	records := make([]database.Template, 0, len(req.Templates))
	for _, item := range req.Templates {
		if err := validateTemplateItem(item); err != nil {
			BadRequest(c, err.Error())
			return
		}
		records = append(records, database.Template{
			Name:     item.Name,
			Kind:     item.Kind,
			Type:     item.Type,
			Content:  item.Content,
			IsActive: item.IsActive,
		})
	}

	saved, err := h.repo.SaveAll(ctx, event.ID, records)
	if err != nil {
		Internal(c, "failed to save templates")
		return
	}

	items := make([]templateItem, 0, len(saved))
	for _, r := range saved {
		items = append(items, templateItem{
			ID:       r.ID,
			Name:     r.Name,
			Kind:     r.Kind,
			Type:     r.Type,
			Content:  r.Content,
			IsActive: r.IsActive,
		})
	}
	c.JSON(http.StatusOK, gin.H{"templates": items})
}

// SetActiveTemplate 将指定模板设为默认打印模板，重复调用幂等。
func (h *TemplateHandler) SetActiveTemplate(c *gin.Context) {
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

	templateID, err := parseUintParam(c.Param("templateID"))
	if err != nil {
		BadRequest(c, "invalid template id")
		return
	}

	if err := h.repo.SetActive(ctx, event.ID, templateID); err != nil {
		if errors.Is(err, templates.ErrNotFound) {
			NotFound(c, "template not found")
			return
		}
		Internal(c, "failed to activate template")
		return
	}

	c.Status(http.StatusNoContent)
}

type reviewTemplateRequest struct {
	Content datatypes.JSON `json:"content" binding:"required"`
}

// ReviewTemplate renders an in-editor badge template to preview HTML without
// persisting anything. The geometry here is exactly what print mode uses.
func (h *TemplateHandler) ReviewTemplate(c *gin.Context) {
	var req reviewTemplateRequest
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

	var tmpl badge.Template
	if err := json.Unmarshal(req.Content, &tmpl); err != nil {
		BadRequest(c, "invalid badge template content")
		return
	}

	background := ""
	if tmpl.Background != nil && tmpl.Background.ImageKey != "" {
		if !isValidUserAssetObjectKey(userID, tmpl.Background.ImageKey) {
			Forbidden(c, "invalid background object key")
			return
		}
		url, err := h.storage.GeneratePresignedURL(ctx, tmpl.Background.ImageKey, 10*time.Minute)
		if err != nil {
			Internal(c, "failed to resolve background image")
			return
		}
		background = url
	}

	html, err := badge.Render(badge.RenderInput{
		Template: tmpl,
		Event: badge.EventContext{
			Name:           event.Name,
			BrandPrimary:   event.BrandPrimary,
			BrandSecondary: event.BrandSecondary,
		},
		Mode:            badge.ModePreview,
		BackgroundImage: background,
	})
	if err != nil {
		Internal(c, "failed to render preview")
		return
	}

	width, height := tmpl.CanvasSize()
	c.JSON(http.StatusOK, gin.H{
		"html":      html,
		"width_px":  width,
		"height_px": height,
	})
}

func parseUintParam(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func validateTemplateItem(item templateItem) error {
	if item.Name == "" {
		return errors.New("template name is required")
	}
	switch item.Type {
	case templates.TypeBadge:
		var tmpl badge.Template
		if err := json.Unmarshal(item.Content, &tmpl); err != nil {
			return errors.New("invalid badge template content")
		}
		if tmpl.Kind != badge.KindPredefined && tmpl.Kind != badge.KindCustom {
			return errors.New("badge template kind must be predefined or custom")
		}
		if tmpl.WidthIn <= 0 || tmpl.HeightIn <= 0 {
			return errors.New("badge dimensions must be positive")
		}
	case templates.TypeForm:
		var tmpl form.Template
		if err := json.Unmarshal(item.Content, &tmpl); err != nil {
			return errors.New("invalid form template content")
		}
		tmpl.Name = item.Name
		if err := form.Validate(tmpl); err != nil {
			// 至少一个字段的要求只约束自定义模板；预置表单是只读布局。
			if errors.Is(err, form.ErrNoFields) && item.Kind == string(badge.KindPredefined) {
				return nil
			}
			return err
		}
	default:
		return errors.New("template type must be badge or form")
	}
	return nil
}
