package services

import (
	"context"
	"errors"
	"time"

	"auction-release-api/config"
	"auction-release-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BatchAllocator places accepted submissions into batches. Normal-queue
// batches are capped at models.NormalBatchCapacity and a fresh batch is
// opened for the same cycle once the prevailing one fills; skip and special
// queues are unbounded but roll over to the next cycle after the intake
// cutoff.
type BatchAllocator struct {
	db        *gorm.DB
	timetable Timetable
}

// NewBatchAllocator constructs a BatchAllocator. A nil db falls back to
// the global connection.
func NewBatchAllocator(db *gorm.DB, timetable Timetable) *BatchAllocator {
	if db == nil {
		db = config.DB
	}
	return &BatchAllocator{db: db, timetable: timetable}
}

// Assign picks (or creates) the batch a submission of the given queue joins
// when accepted at now, and returns the batch id together with the release
// boundary the batch targets.
//
// The candidate lookup locks the batch row FOR UPDATE, but the submission
// itself is written later by SubmissionStore.Accept, which re-checks the
// capacity under its own lock. A concurrent fill between the two reports
// ErrCapacityRaceLost there and the caller retries Assign.
func (a *BatchAllocator) Assign(ctx context.Context, queue models.QueueType, now time.Time) (int, time.Time, error) {
	if !queue.Valid() {
		return 0, time.Time{}, &ValidationError{Field: "queue_type", Message: "unknown queue type"}
	}

	boundary := a.timetable.BoundaryFor(now, queue != models.QueueNormal)
	cycle := CycleDate(boundary)

	var batchID int
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := a.assignTx(tx, queue, cycle, now)
		if err != nil {
			return err
		}
		batchID = id
		return nil
	})
	if err != nil {
		return 0, time.Time{}, err
	}
	return batchID, boundary, nil
}

func (a *BatchAllocator) assignTx(tx *gorm.DB, queue models.QueueType, cycle string, now time.Time) (int, error) {
	var batch models.Batch
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("queue_type = ? AND cycle_date = ?", queue, cycle).
		Order("batch_id DESC").
		First(&batch).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return a.createBatch(tx, queue, cycle, now)
	case err != nil:
		return 0, err
	}

	if capacity := queue.Capacity(); capacity > 0 {
		var members int64
		if err := tx.Model(&models.Submission{}).
			Where("batch_id = ?", batch.BatchID).
			Count(&members).Error; err != nil {
			return 0, err
		}
		if members >= int64(capacity) {
			return a.createBatch(tx, queue, cycle, now)
		}
	}

	return batch.BatchID, nil
}

func (a *BatchAllocator) createBatch(tx *gorm.DB, queue models.QueueType, cycle string, now time.Time) (int, error) {
	batch := models.Batch{
		BatchCode: uuid.NewString(),
		QueueType: queue,
		CycleDate: cycle,
		CreateAt:  now,
	}
	if err := tx.Create(&batch).Error; err != nil {
		return 0, err
	}
	return batch.BatchID, nil
}
