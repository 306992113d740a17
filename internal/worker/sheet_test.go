package worker

import (
	"strings"
	"testing"
)

func TestComposeSheetPreservesOrder(t *testing.T) {
	badges := []RenderedBadge{
		{HTML: `<div data-badge="first"></div>`, WidthPx: 288, HeightPx: 384},
		{HTML: `<div data-badge="second"></div>`, WidthPx: 288, HeightPx: 384},
		{HTML: `<div data-badge="third"></div>`, WidthPx: 288, HeightPx: 384},
	}

	html, err := ComposeSheet(badges)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	first := strings.Index(html, `data-badge="first"`)
	second := strings.Index(html, `data-badge="second"`)
	third := strings.Index(html, `data-badge="third"`)
	if first < 0 || second < 0 || third < 0 {
		t.Fatal("missing badge in sheet output")
	}
	if !(first < second && second < third) {
		t.Fatalf("page order differs from input order: %d %d %d", first, second, third)
	}

	if got := strings.Count(html, `class="badge-page"`); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
}

func TestComposeSheetDoesNotEscapeBadgeHTML(t *testing.T) {
	html, err := ComposeSheet([]RenderedBadge{
		{HTML: `<div class="badge-canvas">Jane Doe</div>`, WidthPx: 288, HeightPx: 384},
	})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if !strings.Contains(html, `<div class="badge-canvas">Jane Doe</div>`) {
		t.Fatal("badge markup was escaped")
	}
}

func TestFitScale(t *testing.T) {
	cases := []struct {
		name      string
		w, h      float64
		wantUpper float64
		wantLower float64
	}{
		{"small badge never upscaled", 288, 384, 1, 1},
		{"wide badge fits width", 2000, 100, (a4WidthPx - 2*pageMarginPx) / 2000, (a4WidthPx - 2*pageMarginPx) / 2000},
		{"tall badge fits height", 100, 3000, (a4HeightPx - 2*pageMarginPx) / 3000, (a4HeightPx - 2*pageMarginPx) / 3000},
		{"degenerate size", 0, 0, 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := fitScale(tc.w, tc.h)
			if got < tc.wantLower-1e-9 || got > tc.wantUpper+1e-9 {
				t.Fatalf("fitScale(%v,%v) = %v, want %v", tc.w, tc.h, got, tc.wantUpper)
			}
		})
	}
}
