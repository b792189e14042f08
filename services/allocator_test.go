package services

import (
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"auction-release-api/models"
)

func testTimetable() Timetable {
	return Timetable{ReleaseHour: 21, ReleaseMinute: 57, CutoffHour: 17, CutoffMinute: 30}
}

func TestAssignTxReusesOpenBatch(t *testing.T) {
	now := time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC)

	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `batches`.*FOR UPDATE"),
			args:    []interface{}{"normal", "2026-08-28"},
			columns: []string{"batch_id", "batch_code", "queue_type", "cycle_date"},
			rows:    [][]driver.Value{{int64(3), "b-code", "normal", "2026-08-28"}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `submissions`"),
			args:    []interface{}{int64(3)},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(4)}},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	alloc := NewBatchAllocator(db, testTimetable())
	batchID, err := alloc.assignTx(testSession(db), models.QueueNormal, "2026-08-28", now)
	if err != nil {
		t.Fatalf("assignTx failed: %v", err)
	}
	if batchID != 3 {
		t.Fatalf("expected batch 3, got %d", batchID)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssignTxOpensNewBatchWhenFull(t *testing.T) {
	now := time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC)

	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `batches`.*FOR UPDATE"),
			args:    []interface{}{"normal", "2026-08-28"},
			columns: []string{"batch_id", "batch_code", "queue_type", "cycle_date"},
			rows:    [][]driver.Value{{int64(3), "b-code", "normal", "2026-08-28"}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `submissions`"),
			args:    []interface{}{int64(3)},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(15)}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `batches`"),
			args:    []interface{}{anyArg, "normal", "2026-08-28", now},
			result:  scriptedResult{lastInsertID: 4, rowsAffected: 1},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	alloc := NewBatchAllocator(db, testTimetable())
	batchID, err := alloc.assignTx(testSession(db), models.QueueNormal, "2026-08-28", now)
	if err != nil {
		t.Fatalf("assignTx failed: %v", err)
	}
	if batchID != 4 {
		t.Fatalf("expected new batch 4, got %d", batchID)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssignTxCreatesFirstBatchOfCycle(t *testing.T) {
	now := time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC)

	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `batches`.*FOR UPDATE"),
			args:    []interface{}{"skip", "2026-08-28"},
			columns: []string{"batch_id", "batch_code", "queue_type", "cycle_date"},
			rows:    [][]driver.Value{},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `batches`"),
			args:    []interface{}{anyArg, "skip", "2026-08-28", now},
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	alloc := NewBatchAllocator(db, testTimetable())
	batchID, err := alloc.assignTx(testSession(db), models.QueueSkip, "2026-08-28", now)
	if err != nil {
		t.Fatalf("assignTx failed: %v", err)
	}
	if batchID != 1 {
		t.Fatalf("expected batch 1, got %d", batchID)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAssignTxSkipQueueIsUnbounded(t *testing.T) {
	now := time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC)

	// No member count query: skip batches have no capacity to check.
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `batches`.*FOR UPDATE"),
			args:    []interface{}{"skip", "2026-08-28"},
			columns: []string{"batch_id", "batch_code", "queue_type", "cycle_date"},
			rows:    [][]driver.Value{{int64(8), "b-code", "skip", "2026-08-28"}},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	alloc := NewBatchAllocator(db, testTimetable())
	batchID, err := alloc.assignTx(testSession(db), models.QueueSkip, "2026-08-28", now)
	if err != nil {
		t.Fatalf("assignTx failed: %v", err)
	}
	if batchID != 8 {
		t.Fatalf("expected batch 8, got %d", batchID)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
