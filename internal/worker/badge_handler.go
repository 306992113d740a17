package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"eventy/internal/badge"
	"eventy/internal/database"
	"eventy/internal/errcode"
	"eventy/internal/pdf"
	"eventy/internal/storage"
	"eventy/internal/tasks"
	"eventy/internal/templates"
)

// BadgeTaskHandler 消费徽章打印与导出任务。
// 两条路径共用同一渲染管线；区别在于打印路径的参会者在入队时已被标记
// badge_printed（"已打印"意为"已请求打印"），导出路径不碰打印状态。
type BadgeTaskHandler struct {
	db          *gorm.DB
	repo        templates.Repository
	storage     *storage.Client
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBadgeTaskHandler 创建任务处理器。
func NewBadgeTaskHandler(
	db *gorm.DB,
	repo templates.Repository,
	storageClient *storage.Client,
	redisClient *redis.Client,
	logger *slog.Logger,
) *BadgeTaskHandler {
	return &BadgeTaskHandler{
		db:          db,
		repo:        repo,
		storage:     storageClient,
		redisClient: redisClient,
		logger:      logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *BadgeTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.BadgeBatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	kind := "export"
	if t.Type() == tasks.TypeBadgePrint {
		kind = "print"
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("kind", kind),
		slog.Int("job_id", int(payload.JobID)),
		slog.Int("event_id", int(payload.EventID)),
		slog.Int("attendees", len(payload.AttendeeIDs)),
	)
	log.Info("Starting badge batch task...")

	var job database.PrintJob
	if err := h.db.WithContext(ctx).First(&job, payload.JobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("print job not found, skipping task")
			return nil
		}
		log.Error("query print job failed", slog.Any("error", err))
		return err
	}

	var event database.Event
	if err := h.db.WithContext(ctx).First(&event, payload.EventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("event not found, marking job failed")
			return h.db.WithContext(ctx).Model(&job).
				Updates(map[string]any{"status": "failed", "error_message": "event not found"}).Error
		}
		log.Error("query event failed", slog.Any("error", err))
		return err
	}

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}
		if err := h.failJob(ctx, &job, event.UserID, payload, kind, strings.TrimSpace(retErr.Error())); err != nil {
			log.Error("record job failure failed", slog.Any("error", err))
		}
	}()

	pdfBytes, missingKeys, err := h.generateBatchPDF(ctx, log, event, payload)
	if err != nil {
		log.Error("generate badge pdf failed", slog.Any("error", err))
		return err
	}

	objectName := fmt.Sprintf(
		"badges/%d/badges-%s-%s.pdf",
		event.ID,
		time.Now().UTC().Format("20060102-150405"),
		uuid.NewString(),
	)
	if _, err := h.storage.UploadFile(ctx, objectName, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), "application/pdf"); err != nil {
		log.Error("upload badge pdf failed", slog.Any("error", err))
		return err
	}

	update := map[string]any{
		"pdf_object_key": objectName,
		"status":         "completed",
	}
	if err := h.db.WithContext(ctx).Model(&job).Updates(update).Error; err != nil {
		log.Error("update print job failed", slog.Any("error", err))
		return err
	}

	notify := BadgeJobNotifyMessage{
		Status:        "completed",
		JobID:         job.ID,
		EventID:       event.ID,
		Kind:          kind,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if len(missingKeys) > 0 {
		notify.ErrorCode = errcode.ResourceMissing
		notify.ErrorMessage = "部分照片资源缺失/无效，已使用占位头像继续生成"
		notify.MissingKeys = missingKeys
		log.Warn("badge pdf generated with missing assets",
			slog.Int("missing_count", len(missingKeys)),
			slog.Any("missing_keys", missingKeys),
		)
	}
	if err := h.publishNotify(ctx, event.UserID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("Badge batch task completed successfully.")
	return nil
}

// generateBatchPDF 按请求顺序渲染每位参会者的徽章并导出为单个 PDF。
// 任何一张徽章渲染/光栅化失败都会中止整批（没有部分 PDF）。
func (h *BadgeTaskHandler) generateBatchPDF(
	ctx context.Context,
	log *slog.Logger,
	event database.Event,
	payload tasks.BadgeBatchPayload,
) (_ []byte, missingKeys []string, err error) {
	record, err := h.repo.Active(ctx, event.ID)
	if err != nil {
		if errors.Is(err, templates.ErrNotFound) {
			return nil, nil, fmt.Errorf("event %d has no active badge template", event.ID)
		}
		return nil, nil, err
	}
	if record.Type != templates.TypeBadge {
		return nil, nil, fmt.Errorf("active template %d is not a badge template", record.ID)
	}

	var tpl badge.Template
	if err := json.Unmarshal(record.Content, &tpl); err != nil {
		return nil, nil, fmt.Errorf("decode badge template %d: %w", record.ID, err)
	}

	attendees, err := h.loadAttendeesInOrder(ctx, event.ID, payload.AttendeeIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(attendees) == 0 {
		return nil, nil, fmt.Errorf("no attendees matched the request")
	}

	backgroundImage := ""
	if tpl.Background != nil && tpl.Background.ImageKey != "" {
		backgroundImage, err = h.inlineOptional(ctx, tpl.Background.ImageKey, &missingKeys)
		if err != nil {
			return nil, missingKeys, err
		}
	}

	eventCtx := badge.EventContext{
		Name:           event.Name,
		BrandPrimary:   event.BrandPrimary,
		BrandSecondary: event.BrandSecondary,
	}

	width, height := tpl.CanvasSize()
	rendered := make([]RenderedBadge, 0, len(attendees))
	for _, a := range attendees {
		photo := ""
		if a.PhotoObjectKey != "" {
			photo, err = h.inlineOptional(ctx, a.PhotoObjectKey, &missingKeys)
			if err != nil {
				return nil, missingKeys, err
			}
		}

		html, renderErr := badge.Render(badge.RenderInput{
			Template:        tpl,
			Event:           eventCtx,
			User:            badge.UserContext{FullName: a.FullName, Company: a.Company, Title: a.Title, Token: a.Token, PhotoDataURI: photo},
			Mode:            badge.ModePrint,
			BackgroundImage: backgroundImage,
		})
		if renderErr != nil {
			return nil, missingKeys, fmt.Errorf("render badge for attendee %d: %w", a.ID, renderErr)
		}
		rendered = append(rendered, RenderedBadge{HTML: html, WidthPx: width, HeightPx: height})
	}

	sheet, err := ComposeSheet(rendered)
	if err != nil {
		return nil, missingKeys, err
	}

	log.Info("Rendering badge sheet in headless browser...", slog.Int("pages", len(rendered)))
	pdfBytes, err := pdf.GeneratePDFFromHTML(sheet)
	if err != nil {
		return nil, missingKeys, err
	}
	return pdfBytes, missingKeys, nil
}

// loadAttendeesInOrder 查询参会者并按请求中的 ID 顺序返回（页序 == 请求序）。
func (h *BadgeTaskHandler) loadAttendeesInOrder(ctx context.Context, eventID uint, ids []uint) ([]database.Attendee, error) {
	var rows []database.Attendee
	if err := h.db.WithContext(ctx).
		Where("event_id = ? AND id IN ?", eventID, ids).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query attendees: %w", err)
	}

	byID := make(map[uint]database.Attendee, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	ordered := make([]database.Attendee, 0, len(rows))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			ordered = append(ordered, a)
		}
	}
	return ordered, nil
}

// inlineOptional 内联可选图片；对象缺失时记入 missingKeys 并返回空串（占位渲染）。
func (h *BadgeTaskHandler) inlineOptional(ctx context.Context, objectKey string, missingKeys *[]string) (string, error) {
	dataURI, err := inlineObjectAsDataURI(ctx, h.storage, objectKey)
	if err != nil {
		var missing *assetMissingError
		if errors.As(err, &missing) {
			*missingKeys = appendUniqueKey(*missingKeys, objectKey)
			return "", nil
		}
		return "", err
	}
	return dataURI, nil
}

func appendUniqueKey(keys []string, key string) []string {
	key = strings.TrimSpace(key)
	if key == "" {
		return keys
	}
	for _, k := range keys {
		if k == key {
			return keys
		}
	}
	return append(keys, key)
}

func (h *BadgeTaskHandler) failJob(
	ctx context.Context,
	job *database.PrintJob,
	userID uint,
	payload tasks.BadgeBatchPayload,
	kind string,
	message string,
) error {
	update := map[string]any{
		"status":        "failed",
		"error_message": message,
	}
	if err := h.db.WithContext(ctx).Model(job).Updates(update).Error; err != nil {
		return err
	}
	return h.publishNotify(ctx, userID, BadgeJobNotifyMessage{
		Status:        "error",
		JobID:         job.ID,
		EventID:       payload.EventID,
		Kind:          kind,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.SystemError,
		ErrorMessage:  message,
	})
}

func (h *BadgeTaskHandler) publishNotify(ctx context.Context, userID uint, notify BadgeJobNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", userID)
	if err := h.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
