package command

import (
	"strings"
	"testing"
	"time"
)

func TestParseRangeSpec(t *testing.T) {
	// 2026-08-31 is a Monday; week-start math below depends on it.
	now := time.Date(2026, 8, 31, 14, 30, 5, 0, time.Local)

	tests := []struct {
		name         string
		parts        []string
		defaultScope string
		wantErr      string
		validateFunc func(t *testing.T, spec *RangeSpec)
	}{
		{
			name: "empty falls back to default scope",
			validateFunc: func(t *testing.T, spec *RangeSpec) {
				if spec.Kind != RangeScope || spec.Scope != "全部" || spec.Label != "全部" {
					t.Errorf("got %+v", spec)
				}
			},
		},
		{
			name:  "slash token is an absolute day",
			parts: []string{"2/20"},
			validateFunc: func(t *testing.T, spec *RangeSpec) {
				if spec.Kind != RangeDate || spec.Year != 2026 || spec.Month != 2 || spec.Day != 20 {
					t.Errorf("got %+v", spec)
				}
				if spec.Label != "2026/02/20" {
					t.Errorf("Label = %s", spec.Label)
				}
			},
		},
		{
			name:    "invalid calendar day fails",
			parts:   []string{"2/30"},
			wantErr: "需是有效日期",
		},
		{
			name:  "month token",
			parts: []string{"2月"},
			validateFunc: func(t *testing.T, spec *RangeSpec) {
				if spec.Kind != RangeMonthYear || spec.Year != 2026 || spec.Month != 2 {
					t.Errorf("got %+v", spec)
				}
				if spec.Label != "2026年2月" {
					t.Errorf("Label = %s", spec.Label)
				}
			},
		},
		{
			name:    "month out of range fails",
			parts:   []string{"13月"},
			wantErr: "月份需介於 1 到 12",
		},
		{
			name:  "four digits are a whole year",
			parts: []string{"2025"},
			validateFunc: func(t *testing.T, spec *RangeSpec) {
				if spec.Kind != RangeYearExact || spec.Year != 2025 || spec.Label != "2025年" {
					t.Errorf("got %+v", spec)
				}
			},
		},
		{
			name:  "scope synonym normalizes",
			parts: []string{"週"},
			validateFunc: func(t *testing.T, spec *RangeSpec) {
				if spec.Kind != RangeScope || spec.Scope != "周" {
					t.Errorf("got %+v", spec)
				}
			},
		},
		{
			name:    "token matching nothing fails with the scope hint",
			parts:   []string{"收入"},
			wantErr: "範圍只能填：日、周、月、年、全部",
		},
		{
			name:  "month and year in either order",
			parts: []string{"2025年", "2月"},
			validateFunc: func(t *testing.T, spec *RangeSpec) {
				if spec.Kind != RangeMonthYear || spec.Year != 2025 || spec.Month != 2 {
					t.Errorf("got %+v", spec)
				}
			},
		},
		{
			name:    "two tokens needing month and year",
			parts:   []string{"2月", "3月"},
			wantErr: "範圍格式錯誤",
		},
		{
			name:    "three tokens is too many",
			parts:   []string{"2月", "2025", "extra"},
			wantErr: "範圍參數過多",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defaultScope := tt.defaultScope
			if defaultScope == "" {
				defaultScope = "全部"
			}
			spec, err := ParseRangeSpec(tt.parts, defaultScope, now)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRangeSpec() error = %v", err)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, spec)
			}
		})
	}
}

func TestParseMonthRangeSpec(t *testing.T) {
	now := time.Date(2026, 8, 31, 0, 0, 0, 0, time.Local)

	spec, err := ParseMonthRangeSpec([]string{"2月到5月"}, now)
	if err != nil {
		t.Fatalf("ParseMonthRangeSpec() error = %v", err)
	}
	if spec.Kind != RangeMonthRange || spec.StartMonth != 2 || spec.EndMonth != 5 || spec.Year != 2026 {
		t.Errorf("got %+v", spec)
	}

	// Tokens split by the tokenizer are rejoined before matching.
	if _, err := ParseMonthRangeSpec([]string{"2月到", "5月"}, now); err != nil {
		t.Errorf("split tokens should parse, got %v", err)
	}

	if _, err := ParseMonthRangeSpec([]string{"5月到2月"}, now); err == nil ||
		!strings.Contains(err.Error(), "起始月不可大於結束月") {
		t.Errorf("reversed months error = %v", err)
	}
	if _, err := ParseMonthRangeSpec(nil, now); err == nil {
		t.Error("empty input should fail")
	}
	if _, err := ParseMonthRangeSpec([]string{"2月到13月"}, now); err == nil {
		t.Error("month 13 should fail")
	}
}

func TestRangeSpecWindow(t *testing.T) {
	now := time.Date(2026, 8, 31, 14, 30, 5, 0, time.Local)

	tests := []struct {
		name      string
		parts     []string
		wantStart time.Time
		wantEnd   time.Time
		openStart bool
		openEnd   bool
	}{
		{
			name:      "day scope starts at midnight",
			parts:     []string{"日"},
			wantStart: time.Date(2026, 8, 31, 0, 0, 0, 0, time.Local),
			openEnd:   true,
		},
		{
			name:      "week scope starts on Monday",
			parts:     []string{"周"},
			wantStart: time.Date(2026, 8, 31, 0, 0, 0, 0, time.Local),
			openEnd:   true,
		},
		{
			name:      "month scope starts on the first",
			parts:     []string{"月"},
			wantStart: time.Date(2026, 8, 1, 0, 0, 0, 0, time.Local),
			openEnd:   true,
		},
		{
			name:      "year scope starts on Jan 1",
			parts:     []string{"年"},
			wantStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local),
			openEnd:   true,
		},
		{
			name:      "all has no bounds",
			parts:     []string{"全部"},
			openStart: true,
			openEnd:   true,
		},
		{
			name:      "single day window is one day",
			parts:     []string{"2/20"},
			wantStart: time.Date(2026, 2, 20, 0, 0, 0, 0, time.Local),
			wantEnd:   time.Date(2026, 2, 21, 0, 0, 0, 0, time.Local),
		},
		{
			name:      "december month rolls into the next year",
			parts:     []string{"12月"},
			wantStart: time.Date(2026, 12, 1, 0, 0, 0, 0, time.Local),
			wantEnd:   time.Date(2027, 1, 1, 0, 0, 0, 0, time.Local),
		},
		{
			name:      "exact year spans the year",
			parts:     []string{"2025"},
			wantStart: time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local),
			wantEnd:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseRangeSpec(tt.parts, "全部", now)
			if err != nil {
				t.Fatalf("ParseRangeSpec() error = %v", err)
			}
			w := spec.Window(now)
			if tt.openStart != (w.Start == nil) {
				t.Fatalf("Start open = %v, want %v", w.Start == nil, tt.openStart)
			}
			if tt.openEnd != (w.End == nil) {
				t.Fatalf("End open = %v, want %v", w.End == nil, tt.openEnd)
			}
			if w.Start != nil && !w.Start.Equal(tt.wantStart) {
				t.Errorf("Start = %v, want %v", w.Start, tt.wantStart)
			}
			if w.End != nil && !w.End.Equal(tt.wantEnd) {
				t.Errorf("End = %v, want %v", w.End, tt.wantEnd)
			}
		})
	}

	// Mid-week anchor: Thursday resolves back to that week's Monday.
	thursday := time.Date(2026, 9, 3, 9, 0, 0, 0, time.Local)
	spec, err := ParseRangeSpec([]string{"周"}, "全部", thursday)
	if err != nil {
		t.Fatalf("ParseRangeSpec() error = %v", err)
	}
	w := spec.Window(thursday)
	wantMonday := time.Date(2026, 8, 31, 0, 0, 0, 0, time.Local)
	if w.Start == nil || !w.Start.Equal(wantMonday) {
		t.Errorf("week start = %v, want %v", w.Start, wantMonday)
	}
}

func TestParseSettleArgs(t *testing.T) {
	now := time.Date(2026, 8, 31, 0, 0, 0, 0, time.Local)

	args, err := ParseSettleArgs([]string{"3"}, now)
	if err != nil {
		t.Fatalf("ParseSettleArgs() error = %v", err)
	}
	if args.Headcount != 3 {
		t.Errorf("Headcount = %d, want 3", args.Headcount)
	}
	if args.Range.Kind != RangeScope || args.Range.Scope != "月" {
		t.Errorf("Range = %+v, want default 月 scope", args.Range)
	}

	// A bare small integer is a headcount; month and year shapes stay
	// range tokens.
	args, err = ParseSettleArgs([]string{"3月", "4"}, now)
	if err != nil {
		t.Fatalf("ParseSettleArgs() error = %v", err)
	}
	if args.Headcount != 4 || args.Range.Month != 3 {
		t.Errorf("got headcount=%d range=%+v", args.Headcount, args.Range)
	}

	args, err = ParseSettleArgs([]string{"2025"}, now)
	if err != nil {
		t.Fatalf("ParseSettleArgs() error = %v", err)
	}
	if args.Headcount != 0 || args.Range.Kind != RangeYearExact {
		t.Errorf("4-digit token must stay a year, got %+v", args)
	}

	if _, err := ParseSettleArgs([]string{"3", "4"}, now); err == nil {
		t.Error("two headcounts should fail")
	}
}
