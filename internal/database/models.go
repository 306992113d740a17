package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 表示主办方账号信息。
type User struct {
	gorm.Model
	Username     string  `gorm:"uniqueIndex;size:64"`
	PasswordHash string  `gorm:"size:255"`
	Events       []Event `gorm:"constraint:OnDelete:CASCADE"`
}

// Event 表示一场活动。品牌色供预置徽章模板解析页眉/页脚颜色。
type Event struct {
	gorm.Model
	Name           string `gorm:"size:255"`
	Location       string `gorm:"size:255"`
	StartsAt       time.Time
	EndsAt         time.Time
	BrandPrimary   string `gorm:"size:16"`
	BrandSecondary string `gorm:"size:16"`
	UserID         uint   `gorm:"index"`
	User           User   `gorm:"constraint:OnDelete:CASCADE"`
	Templates      []Template
	Attendees      []Attendee
	AgendaSessions []AgendaSession
}

// Template 表示徽章或报名表单模板。
// Content(JSONB) 存储 badge.Template 或 form.Template 的布局数据。
type Template struct {
	gorm.Model
	Name     string         `gorm:"size:255"`
	Kind     string         `gorm:"size:16"` // predefined | custom
	Type     string         `gorm:"size:16"` // badge | form
	Content  datatypes.JSON `gorm:"type:jsonb"`
	IsActive bool           `gorm:"default:false;index"`
	EventID  uint           `gorm:"index"`
	Event    Event          `gorm:"constraint:OnDelete:CASCADE"`
}

// Attendee 表示活动的参会者。Token 是徽章二维码的载荷。
type Attendee struct {
	gorm.Model
	FullName       string `gorm:"size:255"`
	Email          string `gorm:"size:255"`
	Company        string `gorm:"size:255"`
	Title          string `gorm:"size:255"`
	Token          string `gorm:"size:128;index"`
	PhotoObjectKey string `gorm:"size:512"`
	BadgePrinted   bool   `gorm:"default:false"`
	EventID        uint   `gorm:"index"`
	Event          Event  `gorm:"constraint:OnDelete:CASCADE"`
}

// AgendaSession 表示议程中的一个环节。
type AgendaSession struct {
	gorm.Model
	Title         string `gorm:"size:255"`
	Location      string `gorm:"size:255"`
	StartsAt      time.Time
	EndsAt        time.Time
	SpeakerIDs    datatypes.JSON `gorm:"type:jsonb"`
	Display       bool           `gorm:"default:true"`
	RequireEnroll bool           `gorm:"default:false"`
	PayBy         string         `gorm:"size:16"` // free | cash | online
	PriceCents    int64
	Currency      string `gorm:"size:8"`
	EventID       uint   `gorm:"index"`
	Event         Event  `gorm:"constraint:OnDelete:CASCADE"`
}

// Asset 记录用户上传到对象存储的文件（徽章背景、参会者照片）。
type Asset struct {
	gorm.Model
	UserID    uint   `gorm:"index"`
	ObjectKey string `gorm:"size:512;uniqueIndex"`
}

// PrintJob 记录一次徽章打印/导出任务的状态与产物。
type PrintJob struct {
	gorm.Model
	EventID       uint           `gorm:"index"`
	Kind          string         `gorm:"size:16"` // print | export
	Status        string         `gorm:"size:32"` // queued | completed | failed
	PdfObjectKey  string         `gorm:"size:512"`
	CorrelationID string         `gorm:"size:64"`
	AttendeeIDs   datatypes.JSON `gorm:"type:jsonb"`
	ErrorMessage  string         `gorm:"size:1024"`
}
