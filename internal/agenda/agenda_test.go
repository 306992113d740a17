package agenda

import (
	"errors"
	"testing"
	"time"
)

func baseSession() Session {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	return Session{
		Title:    "Opening Keynote",
		Location: "Hall A",
		StartsAt: start,
		EndsAt:   start.Add(time.Hour),
		Display:  true,
		PayBy:    PayFree,
	}
}

func TestValidateFreeSession(t *testing.T) {
	if err := Validate(baseSession()); err != nil {
		t.Fatalf("free session rejected: %v", err)
	}
}

func TestValidateEndBeforeStart(t *testing.T) {
	// 10:00 -> 09:00 当天：必须被拒。
	s := baseSession()
	s.EndsAt = s.StartsAt.Add(-time.Hour)
	if err := Validate(s); !errors.Is(err, ErrEndBeforeStart) {
		t.Fatalf("expected ErrEndBeforeStart, got %v", err)
	}

	s.EndsAt = s.StartsAt
	if err := Validate(s); !errors.Is(err, ErrEndBeforeStart) {
		t.Fatalf("equal start/end must be rejected, got %v", err)
	}
}

func TestValidatePaidSessions(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Session)
		want   error
	}{
		{
			name: "paid without price",
			mutate: func(s *Session) {
				s.PayBy = PayCash
				s.PriceCents = 0
			},
			want: ErrPriceRequired,
		},
		{
			name: "paid with negative price",
			mutate: func(s *Session) {
				s.PayBy = PayOnline
				s.PriceCents = -100
			},
			want: ErrPriceRequired,
		},
		{
			name: "paid without currency",
			mutate: func(s *Session) {
				s.PayBy = PayOnline
				s.PriceCents = 2500
				s.Currency = ""
			},
			want: ErrCurrencyMissing,
		},
		{
			name: "unknown pay by",
			mutate: func(s *Session) {
				s.PayBy = "both"
			},
			want: ErrInvalidPayBy,
		},
		{
			name: "valid cash session",
			mutate: func(s *Session) {
				s.PayBy = PayCash
				s.PriceCents = 1500
				s.Currency = "USD"
			},
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := baseSession()
			tc.mutate(&s)
			err := Validate(s)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestPaid(t *testing.T) {
	s := baseSession()
	if s.Paid() {
		t.Fatal("free session reported paid")
	}
	s.PayBy = PayOnline
	if !s.Paid() {
		t.Fatal("online session reported free")
	}
}
