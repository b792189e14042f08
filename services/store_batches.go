package services

import (
	"context"
	"errors"

	"auction-release-api/models"

	"gorm.io/gorm"
)

// BatchSummary pairs a batch with its derived member count.
type BatchSummary struct {
	models.Batch
	MemberCount int `json:"member_count"`
}

// ListBatches returns all batches with member counts, newest cycle first.
func (s *SubmissionStore) ListBatches(ctx context.Context) ([]BatchSummary, error) {
	var batches []models.Batch
	if err := s.db.WithContext(ctx).
		Order("cycle_date DESC, batch_id DESC").
		Find(&batches).Error; err != nil {
		return nil, err
	}

	summaries := make([]BatchSummary, 0, len(batches))
	for _, batch := range batches {
		count, err := s.BatchMemberCount(ctx, batch.BatchID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, BatchSummary{Batch: batch, MemberCount: count})
	}
	return summaries, nil
}

// BatchByID loads a single batch.
func (s *SubmissionStore) BatchByID(ctx context.Context, batchID int) (*models.Batch, error) {
	var batch models.Batch
	err := s.db.WithContext(ctx).First(&batch, "batch_id = ?", batchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// BatchMembers returns the submissions assigned to a batch.
func (s *SubmissionStore) BatchMembers(ctx context.Context, batchID int) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("batch_id = ?", batchID).
		Order("submission_id ASC").
		Find(&subs).Error
	return subs, err
}

// ClearBatch removes every member submission of a batch and then the batch
// itself. Administrative escape hatch; the member rows go first so the
// batch is never deleted while referenced.
func (s *SubmissionStore) ClearBatch(ctx context.Context, batchID int) (int, error) {
	var cleared int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var batch models.Batch
		if err := tx.First(&batch, "batch_id = ?", batchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBatchNotFound
			}
			return err
		}

		res := tx.Where("batch_id = ?", batchID).Delete(&models.Submission{})
		if res.Error != nil {
			return res.Error
		}
		cleared = res.RowsAffected

		return tx.Delete(&models.Batch{}, "batch_id = ?", batchID).Error
	})
	return int(cleared), err
}

// DeleteBatch removes an empty or fully-closed batch. Unlike ClearBatch it
// refuses while any member is still pending, accepted or released.
func (s *SubmissionStore) DeleteBatch(ctx context.Context, batchID int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var live int64
		if err := tx.Model(&models.Submission{}).
			Where("batch_id = ? AND status NOT IN ?", batchID, []models.SubmissionStatus{models.StatusClosed, models.StatusDenied}).
			Count(&live).Error; err != nil {
			return err
		}
		if live > 0 {
			return ErrBatchNotClosed
		}

		res := tx.Delete(&models.Batch{}, "batch_id = ?", batchID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBatchNotFound
		}
		return nil
	})
}
