package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeBadgePrint  = "badge:print"
	TypeBadgeExport = "badge:export"
)

// BadgeBatchPayload 描述一次徽章打印/导出任务所需的最小信息。
// AttendeeIDs 的顺序决定 PDF 页序。
type BadgeBatchPayload struct {
	JobID         uint   `json:"job_id"`
	EventID       uint   `json:"event_id"`
	AttendeeIDs   []uint `json:"attendee_ids"`
	CorrelationID string `json:"correlation_id"`
}

// NewBadgePrintTask 构造徽章打印任务（打印路径会标记参会者已打印）。
func NewBadgePrintTask(payload BadgeBatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeBadgePrint, data), nil
}

// NewBadgeExportTask 构造徽章 PDF 导出任务（不影响打印状态）。
func NewBadgeExportTask(payload BadgeBatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeBadgeExport, data), nil
}
