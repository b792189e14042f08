package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"auction-release-api/models"

	"gorm.io/gorm"
)

// allocationRetries bounds how often an accept retries after losing the
// batch capacity race to a concurrent staff action.
const allocationRetries = 3

// reviewStore is the slice of SubmissionStore the review flow needs.
type reviewStore interface {
	Get(ctx context.Context, id int) (*models.Submission, error)
	Accept(ctx context.Context, id, batchID int, scheduledFor time.Time, actorID int) error
	Deny(ctx context.Context, id int, reason string, actorID int) error
}

// batchAssigner is the slice of BatchAllocator the review flow needs.
type batchAssigner interface {
	Assign(ctx context.Context, queue models.QueueType, now time.Time) (int, time.Time, error)
}

// StaffLogger receives audit lines for staff decisions. Optional.
type StaffLogger interface {
	StaffLog(ctx context.Context, message string) error
}

// ReviewService orchestrates staff accept/deny decisions: allocation,
// the atomic transition, and the owner notification.
type ReviewService struct {
	store     reviewStore
	allocator batchAssigner
	notifier  Notifier
	staffLog  StaffLogger
	clock     Clock
}

// NewReviewService constructs a ReviewService over the given db. notifier
// and staffLog may be nil.
func NewReviewService(db *gorm.DB, timetable Timetable, notifier Notifier, staffLog StaffLogger, clock Clock) *ReviewService {
	if clock == nil {
		clock = SystemClock()
	}
	return &ReviewService{
		store:     NewSubmissionStore(db, clock),
		allocator: NewBatchAllocator(db, timetable),
		notifier:  notifier,
		staffLog:  staffLog,
		clock:     clock,
	}
}

// Accept moves a pending submission to accepted, assigning it a batch and
// release slot. Lost capacity races retry allocation a bounded number of
// times before giving up with ErrCapacityRaceLost.
func (s *ReviewService) Accept(ctx context.Context, submissionID, reviewerID int) (*models.Submission, error) {
	now := s.clock.Now()

	sub, err := s.store.Get(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.StatusPending {
		return nil, ErrInvalidTransition
	}

	var lastErr error
	for attempt := 0; attempt < allocationRetries; attempt++ {
		batchID, boundary, err := s.allocator.Assign(ctx, sub.QueueType, now)
		if err != nil {
			return nil, err
		}

		err = s.store.Accept(ctx, submissionID, batchID, boundary, reviewerID)
		if errors.Is(err, ErrCapacityRaceLost) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}

		accepted, err := s.store.Get(ctx, submissionID)
		if err != nil {
			return nil, err
		}

		s.notify(ctx, accepted.UserID, fmt.Sprintf(
			"✅ Your submission %q has been accepted! Batch %d, release %s.",
			accepted.Title, batchID, boundary.Format("02/01/06 15:04 UTC")))
		s.audit(ctx, fmt.Sprintf("✅ Submission %d accepted by staff %d (batch %d, release %s)",
			submissionID, reviewerID, batchID, boundary.Format("02/01/06 15:04 UTC")))
		return accepted, nil
	}
	return nil, lastErr
}

// Deny moves a pending submission to denied and notifies the owner with
// the reason, exactly once.
func (s *ReviewService) Deny(ctx context.Context, submissionID, reviewerID int, reason string) (*models.Submission, error) {
	if err := s.store.Deny(ctx, submissionID, reason, reviewerID); err != nil {
		return nil, err
	}

	denied, err := s.store.Get(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, denied.UserID, fmt.Sprintf(
		"❌ Your submission %q has been denied. Reason: %s", denied.Title, reason))
	s.audit(ctx, fmt.Sprintf("❌ Submission %d denied by staff %d: %s", submissionID, reviewerID, reason))
	return denied, nil
}

func (s *ReviewService) notify(ctx context.Context, ownerID int, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, ownerID, message); err != nil {
		log.Printf("[Review] notify owner %d: %v", ownerID, err)
	}
}

func (s *ReviewService) audit(ctx context.Context, message string) {
	if s.staffLog == nil {
		return
	}
	if err := s.staffLog.StaffLog(ctx, message); err != nil {
		log.Printf("[Review] staff log: %v", err)
	}
}
