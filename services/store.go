package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"auction-release-api/config"
	"auction-release-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmissionStore owns every submission/batch mutation. All state changes
// are single conditional UPDATEs guarded by the current status, so a lost
// update under concurrent staff actions is impossible: the second writer
// affects zero rows and gets ErrInvalidTransition.
type SubmissionStore struct {
	db    *gorm.DB
	clock Clock
}

// NewSubmissionStore constructs a SubmissionStore. A nil db falls back to
// the global connection.
func NewSubmissionStore(db *gorm.DB, clock Clock) *SubmissionStore {
	if db == nil {
		db = config.DB
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &SubmissionStore{db: db, clock: clock}
}

// CreateSubmissionInput carries the intake tuple. The core does not parse
// free-form content; the card payload arrives as opaque JSON.
type CreateSubmissionInput struct {
	UserID      int
	Title       string
	QueueType   models.QueueType
	Currency    *string
	Rate        *string
	ImageURL    *string
	CardPayload *string
	FeesPaid    *bool
}

// Create inserts a new PENDING submission.
func (s *SubmissionStore) Create(ctx context.Context, input *CreateSubmissionInput) (*models.Submission, error) {
	if input == nil {
		return nil, &ValidationError{Message: "input is nil"}
	}
	if input.UserID <= 0 {
		return nil, &ValidationError{Field: "user_id", Message: "owner is required"}
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, &ValidationError{Field: "title", Message: "title is required"}
	}
	if !input.QueueType.Valid() {
		return nil, &ValidationError{Field: "queue_type", Message: "unknown queue type"}
	}

	now := s.clock.Now()
	sub := &models.Submission{
		SubmissionNumber: uuid.NewString(),
		UserID:           input.UserID,
		Title:            strings.TrimSpace(input.Title),
		QueueType:        input.QueueType,
		Status:           models.StatusPending,
		Currency:         input.Currency,
		Rate:             input.Rate,
		ImageURL:         input.ImageURL,
		CardPayload:      input.CardPayload,
		FeesPaid:         input.FeesPaid,
		CreateAt:         now,
		UpdateAt:         now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		return s.appendEvent(tx, sub.SubmissionID, "", models.StatusPending, &input.UserID, nil, now)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Get loads a submission with its owner and batch.
func (s *SubmissionStore) Get(ctx context.Context, id int) (*models.Submission, error) {
	var sub models.Submission
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Batch").
		First(&sub, "submission_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByUser returns all submissions owned by userID, newest first.
func (s *SubmissionStore) ListByUser(ctx context.Context, userID int) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submission_id DESC").
		Find(&subs).Error
	return subs, err
}

// ListPending returns submissions awaiting review, oldest first.
func (s *SubmissionStore) ListPending(ctx context.Context) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("status = ?", models.StatusPending).
		Order("submission_id ASC").
		Find(&subs).Error
	return subs, err
}

// Accept moves a PENDING submission to ACCEPTED with its batch and release
// slot. The whole check-then-write runs inside one transaction holding a
// row lock on the batch, so a concurrent accept either waits or loses the
// capacity race.
func (s *SubmissionStore) Accept(ctx context.Context, id, batchID int, scheduledFor time.Time, actorID int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.acceptTx(tx, id, batchID, scheduledFor, actorID, s.clock.Now())
	})
}

func (s *SubmissionStore) acceptTx(tx *gorm.DB, id, batchID int, scheduledFor time.Time, actorID int, now time.Time) error {
	var batch models.Batch
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&batch, "batch_id = ?", batchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrBatchNotFound
	}
	if err != nil {
		return err
	}

	if capacity := batch.QueueType.Capacity(); capacity > 0 {
		var members int64
		if err := tx.Model(&models.Submission{}).
			Where("batch_id = ?", batchID).
			Count(&members).Error; err != nil {
			return err
		}
		if members >= int64(capacity) {
			return ErrCapacityRaceLost
		}
	}

	res := tx.Model(&models.Submission{}).
		Where("submission_id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"batch_id":      batchID,
			"scheduled_for": scheduledFor,
			"status":        models.StatusAccepted,
			"update_at":     now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.transitionConflict(tx, id)
	}

	return s.appendEvent(tx, id, models.StatusPending, models.StatusAccepted, &actorID, nil, now)
}

// Deny moves a PENDING submission to DENIED, recording the reason.
func (s *SubmissionStore) Deny(ctx context.Context, id int, reason string, actorID int) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return &ValidationError{Field: "reason", Message: "deny reason is required"}
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.denyTx(tx, id, reason, actorID, s.clock.Now())
	})
}

func (s *SubmissionStore) denyTx(tx *gorm.DB, id int, reason string, actorID int, now time.Time) error {
	res := tx.Model(&models.Submission{}).
		Where("submission_id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"deny_reason": reason,
			"status":      models.StatusDenied,
			"update_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.transitionConflict(tx, id)
	}

	return s.appendEvent(tx, id, models.StatusPending, models.StatusDenied, &actorID, &reason, now)
}

// MarkReleased moves an ACCEPTED submission to RELEASED, storing the public
// handle the publisher returned. actorID is nil when the scheduler acts.
func (s *SubmissionStore) MarkReleased(ctx context.Context, id int, publicHandle string, actorID *int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.markReleasedTx(tx, id, publicHandle, actorID, s.clock.Now())
	})
}

func (s *SubmissionStore) markReleasedTx(tx *gorm.DB, id int, publicHandle string, actorID *int, now time.Time) error {
	res := tx.Model(&models.Submission{}).
		Where("submission_id = ? AND status = ?", id, models.StatusAccepted).
		Updates(map[string]interface{}{
			"public_handle": publicHandle,
			"status":        models.StatusReleased,
			"update_at":     now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.transitionConflict(tx, id)
	}

	return s.appendEvent(tx, id, models.StatusAccepted, models.StatusReleased, actorID, &publicHandle, now)
}

// MarkClosed moves a RELEASED submission to CLOSED.
func (s *SubmissionStore) MarkClosed(ctx context.Context, id int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.markClosedTx(tx, id, s.clock.Now())
	})
}

func (s *SubmissionStore) markClosedTx(tx *gorm.DB, id int, now time.Time) error {
	res := tx.Model(&models.Submission{}).
		Where("submission_id = ? AND status = ?", id, models.StatusReleased).
		Updates(map[string]interface{}{
			"closed_at": now,
			"status":    models.StatusClosed,
			"update_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.transitionConflict(tx, id)
	}

	return s.appendEvent(tx, id, models.StatusReleased, models.StatusClosed, nil, nil, now)
}

// AcceptedDueBy returns every ACCEPTED submission whose release slot is at
// or before now, in release order.
func (s *SubmissionStore) AcceptedDueBy(ctx context.Context, now time.Time) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ?", models.StatusAccepted, now).
		Order("scheduled_for ASC, submission_id ASC").
		Find(&subs).Error
	return subs, err
}

// ReleasedNotClosed returns the previous cycle's live listings.
func (s *SubmissionStore) ReleasedNotClosed(ctx context.Context) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusReleased).
		Order("submission_id ASC").
		Find(&subs).Error
	return subs, err
}

// BatchMemberCount counts submissions referencing the batch.
func (s *SubmissionStore) BatchMemberCount(ctx context.Context, batchID int) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("batch_id = ?", batchID).
		Count(&count).Error
	return int(count), err
}

// LastReleaseCycle reads the marker of the last completed cycle, or ""
// when no cycle has run yet.
func (s *SubmissionStore) LastReleaseCycle(ctx context.Context) (string, error) {
	var cfg models.SystemConfig
	err := s.db.WithContext(ctx).
		First(&cfg, "`key` = ?", models.ConfigKeyLastReleaseCycle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return cfg.Value, nil
}

// SetLastReleaseCycle persists the marker. Written only after a cycle
// completes, so a crash mid-cycle re-runs instead of skipping.
func (s *SubmissionStore) SetLastReleaseCycle(ctx context.Context, day string) error {
	cfg := models.SystemConfig{Key: models.ConfigKeyLastReleaseCycle, Value: day}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&cfg).Error
}

// transitionConflict distinguishes a missing row from a status conflict
// after a conditional update touched nothing.
func (s *SubmissionStore) transitionConflict(tx *gorm.DB, id int) error {
	var sub models.Submission
	err := tx.First(&sub, "submission_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSubmissionNotFound
	}
	if err != nil {
		return err
	}
	return ErrInvalidTransition
}

func (s *SubmissionStore) appendEvent(tx *gorm.DB, submissionID int, from, to models.SubmissionStatus, actorID *int, note *string, at time.Time) error {
	event := models.SubmissionEvent{
		SubmissionID: submissionID,
		FromStatus:   from,
		ToStatus:     to,
		ActorID:      actorID,
		Note:         note,
		CreatedAt:    at,
	}
	return tx.Create(&event).Error
}
