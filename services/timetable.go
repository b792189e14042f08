package services

import (
	"os"
	"strconv"
	"time"
)

// Clock abstracts time.Now so the scheduler and allocator can be driven by
// a fake clock in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock in UTC.
func SystemClock() Clock { return systemClock{} }

// Timetable holds the two daily instants that drive the pipeline: the
// release boundary (cutover) and the intake cutoff for unbounded queues.
// All fields are UTC.
type Timetable struct {
	ReleaseHour   int
	ReleaseMinute int
	CutoffHour    int
	CutoffMinute  int
}

// Canonical rule set. Historical deployments disagreed on these values;
// the env overrides exist so operations can change them without a build.
const (
	defaultReleaseHour   = 21
	defaultReleaseMinute = 57
	defaultCutoffHour    = 17
	defaultCutoffMinute  = 30
)

// DefaultTimetable reads RELEASE_HOUR_UTC, RELEASE_MINUTE_UTC,
// INTAKE_CUTOFF_HOUR_UTC and INTAKE_CUTOFF_MINUTE_UTC, falling back to the
// canonical 21:57 / 17:30 UTC.
func DefaultTimetable() Timetable {
	return Timetable{
		ReleaseHour:   envInt("RELEASE_HOUR_UTC", defaultReleaseHour),
		ReleaseMinute: envInt("RELEASE_MINUTE_UTC", defaultReleaseMinute),
		CutoffHour:    envInt("INTAKE_CUTOFF_HOUR_UTC", defaultCutoffHour),
		CutoffMinute:  envInt("INTAKE_CUTOFF_MINUTE_UTC", defaultCutoffMinute),
	}
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// ReleaseTarget returns the release instant on the same calendar day as now.
func (t Timetable) ReleaseTarget(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), t.ReleaseHour, t.ReleaseMinute, 0, 0, time.UTC)
}

// NextReleaseBoundary returns the next release instant strictly after now.
func (t Timetable) NextReleaseBoundary(now time.Time) time.Time {
	boundary := t.ReleaseTarget(now)
	if !boundary.After(now.UTC()) {
		boundary = boundary.AddDate(0, 0, 1)
	}
	return boundary
}

// cutoffFor returns the intake cutoff instant that belongs to the given
// release boundary (same calendar day, earlier in the day).
func (t Timetable) cutoffFor(boundary time.Time) time.Time {
	return time.Date(boundary.Year(), boundary.Month(), boundary.Day(), t.CutoffHour, t.CutoffMinute, 0, 0, time.UTC)
}

// IsAfterCutoff reports whether now is at or past the intake cutoff of the
// cycle that boundary opens. Submissions in unbounded queues arriving after
// the cutoff are deferred a cycle so listings get enough lead time.
func (t Timetable) IsAfterCutoff(now, boundary time.Time) bool {
	return !now.UTC().Before(t.cutoffFor(boundary))
}

// BoundaryFor computes the release boundary a new assignment targets.
// deferAfterCutoff is set for unbounded queues, which roll over to the
// next cycle once the cutoff has passed.
func (t Timetable) BoundaryFor(now time.Time, deferAfterCutoff bool) time.Time {
	boundary := t.NextReleaseBoundary(now)
	if deferAfterCutoff && t.IsAfterCutoff(now, boundary) {
		boundary = boundary.AddDate(0, 0, 1)
	}
	return boundary
}

// CycleDate formats the calendar date a boundary belongs to, which is also
// the batch cycle key and the release marker value.
func CycleDate(at time.Time) string {
	return at.UTC().Format("2006-01-02")
}
