package agenda

import (
	"errors"
	"strings"
	"time"
)

// PayBy 表示议程环节的付费方式。
type PayBy string

const (
	PayFree   PayBy = "free"
	PayCash   PayBy = "cash"
	PayOnline PayBy = "online"
)

// Session 是提交议程环节时的领域数据。校验在入库与任何网络调用之前完成，
// 后端数据库仍是最终事实来源。
type Session struct {
	Title         string
	Location      string
	StartsAt      time.Time
	EndsAt        time.Time
	SpeakerIDs    []uint
	Display       bool
	RequireEnroll bool
	PayBy         PayBy
	PriceCents    int64
	Currency      string
}

var (
	ErrEndBeforeStart  = errors.New("end time must be after start time")
	ErrPriceRequired   = errors.New("paid session requires price greater than zero")
	ErrInvalidPayBy    = errors.New("pay by must be one of free, cash, online")
	ErrCurrencyMissing = errors.New("paid session requires a currency")
	ErrTitleMissing    = errors.New("session title is required")
)

// Paid reports whether the session requires payment.
func (s Session) Paid() bool {
	return s.PayBy == PayCash || s.PayBy == PayOnline
}

// Validate enforces the submission rules: end strictly after start, and paid
// sessions need a positive price with exactly one of cash/online selected.
func Validate(s Session) error {
	if strings.TrimSpace(s.Title) == "" {
		return ErrTitleMissing
	}
	if !s.EndsAt.After(s.StartsAt) {
		return ErrEndBeforeStart
	}
	switch s.PayBy {
	case PayFree:
		return nil
	case PayCash, PayOnline:
		if s.PriceCents <= 0 {
			return ErrPriceRequired
		}
		if strings.TrimSpace(s.Currency) == "" {
			return ErrCurrencyMissing
		}
		return nil
	default:
		return ErrInvalidPayBy
	}
}
