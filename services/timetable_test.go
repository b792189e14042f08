package services

import (
	"testing"
	"time"
)

func TestNextReleaseBoundary(t *testing.T) {
	tt := testTimetable()

	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before today's release",
			now:  time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 28, 21, 57, 0, 0, time.UTC),
		},
		{
			name: "exactly at the release instant rolls to tomorrow",
			now:  time.Date(2026, 8, 28, 21, 57, 0, 0, time.UTC),
			want: time.Date(2026, 8, 29, 21, 57, 0, 0, time.UTC),
		},
		{
			name: "after today's release",
			now:  time.Date(2026, 8, 28, 23, 30, 0, 0, time.UTC),
			want: time.Date(2026, 8, 29, 21, 57, 0, 0, time.UTC),
		},
		{
			name: "month rollover",
			now:  time.Date(2026, 8, 31, 22, 0, 0, 0, time.UTC),
			want: time.Date(2026, 9, 1, 21, 57, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tt.NextReleaseBoundary(tc.now)
			if !got.Equal(tc.want) {
				t.Fatalf("NextReleaseBoundary(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestBoundaryForCutoffDeferral(t *testing.T) {
	tt := testTimetable()

	cases := []struct {
		name  string
		now   time.Time
		deferRoll bool
		want  time.Time
	}{
		{
			name:  "normal queue ignores cutoff",
			now:   time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC),
			deferRoll: false,
			want:  time.Date(2026, 8, 28, 21, 57, 0, 0, time.UTC),
		},
		{
			name:  "unbounded queue before cutoff stays in current cycle",
			now:   time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
			deferRoll: true,
			want:  time.Date(2026, 8, 28, 21, 57, 0, 0, time.UTC),
		},
		{
			name:  "unbounded queue at cutoff defers to next cycle",
			now:   time.Date(2026, 8, 28, 17, 30, 0, 0, time.UTC),
			deferRoll: true,
			want:  time.Date(2026, 8, 29, 21, 57, 0, 0, time.UTC),
		},
		{
			name:  "unbounded queue after cutoff defers to next cycle",
			now:   time.Date(2026, 8, 28, 19, 45, 0, 0, time.UTC),
			deferRoll: true,
			want:  time.Date(2026, 8, 29, 21, 57, 0, 0, time.UTC),
		},
		{
			name:  "late evening already targets tomorrow, whose cutoff has not passed",
			now:   time.Date(2026, 8, 28, 23, 0, 0, 0, time.UTC),
			deferRoll: true,
			want:  time.Date(2026, 8, 29, 21, 57, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tt.BoundaryFor(tc.now, tc.deferRoll)
			if !got.Equal(tc.want) {
				t.Fatalf("BoundaryFor(%v, %v) = %v, want %v", tc.now, tc.deferRoll, got, tc.want)
			}
		})
	}
}

func TestCycleDate(t *testing.T) {
	at := time.Date(2026, 8, 28, 21, 57, 0, 0, time.UTC)
	if got := CycleDate(at); got != "2026-08-28" {
		t.Fatalf("CycleDate = %q, want 2026-08-28", got)
	}
}

func TestDefaultTimetableFallsBackToCanonicalTimes(t *testing.T) {
	t.Setenv("RELEASE_HOUR_UTC", "")
	t.Setenv("RELEASE_MINUTE_UTC", "")
	t.Setenv("INTAKE_CUTOFF_HOUR_UTC", "")
	t.Setenv("INTAKE_CUTOFF_MINUTE_UTC", "")

	tt := DefaultTimetable()
	if tt.ReleaseHour != 21 || tt.ReleaseMinute != 57 {
		t.Fatalf("unexpected release time %02d:%02d", tt.ReleaseHour, tt.ReleaseMinute)
	}
	if tt.CutoffHour != 17 || tt.CutoffMinute != 30 {
		t.Fatalf("unexpected cutoff time %02d:%02d", tt.CutoffHour, tt.CutoffMinute)
	}
}

func TestDefaultTimetableHonorsOverrides(t *testing.T) {
	t.Setenv("RELEASE_HOUR_UTC", "15")
	t.Setenv("RELEASE_MINUTE_UTC", "57")

	tt := DefaultTimetable()
	if tt.ReleaseHour != 15 || tt.ReleaseMinute != 57 {
		t.Fatalf("unexpected release time %02d:%02d", tt.ReleaseHour, tt.ReleaseMinute)
	}
}
