package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"auction-release-api/models"

	"gorm.io/gorm"
)

const (
	// releaseCycleLockName is the MySQL advisory lock guarding the cycle
	// against a second concurrently-running process.
	releaseCycleLockName = "auction_release_cycle"

	defaultPollInterval = 60 * time.Second
	defaultCallTimeout  = 30 * time.Second
)

// releaseStore is the slice of SubmissionStore the scheduler needs.
type releaseStore interface {
	Get(ctx context.Context, id int) (*models.Submission, error)
	AcceptedDueBy(ctx context.Context, now time.Time) ([]models.Submission, error)
	ReleasedNotClosed(ctx context.Context) ([]models.Submission, error)
	MarkReleased(ctx context.Context, id int, publicHandle string, actorID *int) error
	MarkClosed(ctx context.Context, id int) error
	LastReleaseCycle(ctx context.Context) (string, error)
	SetLastReleaseCycle(ctx context.Context, day string) error
}

// ReleaseService drives the daily cutover: once per calendar day, at or
// after the release target, it closes the previous cycle's listings, then
// publishes every due submission, then notifies owners, and only then
// persists the day marker. A crash mid-cycle therefore re-runs safely on
// the next tick instead of skipping a day.
type ReleaseService struct {
	db        *gorm.DB // advisory lock only; nil skips locking
	store     releaseStore
	publisher Publisher
	notifier  Notifier
	clock     Clock
	timetable Timetable

	pollInterval time.Duration
	callTimeout  time.Duration
}

// NewReleaseService constructs the scheduler with explicit dependencies.
// A nil clock means the UTC wall clock.
func NewReleaseService(db *gorm.DB, store releaseStore, publisher Publisher, notifier Notifier, timetable Timetable, clock Clock) *ReleaseService {
	if clock == nil {
		clock = SystemClock()
	}
	if store == nil {
		store = NewSubmissionStore(db, clock)
	}
	return &ReleaseService{
		db:           db,
		store:        store,
		publisher:    publisher,
		notifier:     notifier,
		clock:        clock,
		timetable:    timetable,
		pollInterval: defaultPollInterval,
		callTimeout:  defaultCallTimeout,
	}
}

// SetPollInterval overrides the tick interval (tests, ops tuning).
func (s *ReleaseService) SetPollInterval(d time.Duration) {
	if d > 0 {
		s.pollInterval = d
	}
}

// Run ticks until ctx is cancelled. In-flight per-item work finishes; no
// new cycle starts after cancellation.
func (s *ReleaseService) Run(ctx context.Context) {
	log.Printf("[ReleaseCycle] scheduler started (poll %s, release %02d:%02d UTC)",
		s.pollInterval, s.timetable.ReleaseHour, s.timetable.ReleaseMinute)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[ReleaseCycle] scheduler stopped")
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				log.Printf("[ReleaseCycle] tick: %v", err)
			}
		}
	}
}

// Tick runs the cycle when it is due and has not run today. Any store
// error aborts the tick; the next tick retries.
func (s *ReleaseService) Tick(ctx context.Context) error {
	now := s.clock.Now().UTC()
	if now.Before(s.timetable.ReleaseTarget(now)) {
		return nil
	}

	today := CycleDate(now)
	last, err := s.store.LastReleaseCycle(ctx)
	if err != nil {
		return fmt.Errorf("read release marker: %w", err)
	}
	if last == today {
		return nil
	}

	return s.runCycle(ctx, now, true)
}

// RunCycleNow forces a cycle outside the schedule (admin override, manual
// command). The day marker is only written when the scheduled target has
// passed, so a forced early run cannot suppress the scheduled one.
func (s *ReleaseService) RunCycleNow(ctx context.Context) error {
	now := s.clock.Now().UTC()
	setMarker := !now.Before(s.timetable.ReleaseTarget(now))
	return s.runCycle(ctx, now, setMarker)
}

// ForceRelease publishes a single submission immediately (admin override).
// The submission must already be ACCEPTED; the transition itself goes
// through the same conditional write as the scheduled path.
func (s *ReleaseService) ForceRelease(ctx context.Context, submissionID int, actorID int) (*models.Submission, error) {
	sub, err := s.store.Get(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.StatusAccepted {
		return nil, ErrInvalidTransition
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	handle, err := s.publisher.Post(callCtx, sub)
	cancel()
	if err != nil {
		return nil, err
	}

	if err := s.store.MarkReleased(ctx, submissionID, handle, &actorID); err != nil {
		return nil, err
	}

	released, err := s.store.Get(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	s.notifyReleased(ctx, []models.Submission{*released})
	return released, nil
}

func (s *ReleaseService) runCycle(ctx context.Context, now time.Time, setMarker bool) error {
	release, err := s.acquireCycleLock(ctx)
	if err != nil {
		return err
	}
	if release != nil {
		defer func() {
			if err := release(); err != nil {
				log.Printf("[ReleaseCycle] release lock: %v", err)
			}
		}()
	}

	log.Printf("[ReleaseCycle] cycle starting at %s", now.Format(time.RFC3339))

	// All closures complete before any publication so the two cycles are
	// never live at the same time.
	closed := s.closePrevious(ctx)
	published := s.publishDue(ctx, now)
	s.notifyReleased(ctx, published)

	if ctx.Err() != nil {
		// Shutdown mid-cycle: leave the marker unset so the cycle re-runs.
		return ctx.Err()
	}

	if setMarker {
		if err := s.store.SetLastReleaseCycle(ctx, CycleDate(now)); err != nil {
			return fmt.Errorf("persist release marker: %w", err)
		}
	}

	log.Printf("[ReleaseCycle] cycle done: %d closed, %d published", closed, len(published))
	return nil
}

// closePrevious archives every still-open listing from the previous cycle.
// Per-item failures are logged and skipped; the submission then stays
// RELEASED and is retried next cycle.
func (s *ReleaseService) closePrevious(ctx context.Context) int {
	subs, err := s.store.ReleasedNotClosed(ctx)
	if err != nil {
		log.Printf("[ReleaseCycle] list released: %v", err)
		return 0
	}

	closed := 0
	for i := range subs {
		if ctx.Err() != nil {
			return closed
		}
		sub := &subs[i]

		if sub.PublicHandle != nil && *sub.PublicHandle != "" {
			callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
			err := s.publisher.Close(callCtx, *sub.PublicHandle)
			cancel()
			if err != nil {
				log.Printf("[ReleaseCycle] close submission %d (handle %s), needs follow-up: %v",
					sub.SubmissionID, *sub.PublicHandle, err)
				continue
			}
		}

		if err := s.store.MarkClosed(ctx, sub.SubmissionID); err != nil {
			log.Printf("[ReleaseCycle] mark closed %d: %v", sub.SubmissionID, err)
			continue
		}
		closed++
	}
	return closed
}

// publishDue posts every accepted submission whose slot has arrived. A
// publish failure leaves the submission ACCEPTED so the next eligible tick
// retries it; it is never marked released without a handle.
func (s *ReleaseService) publishDue(ctx context.Context, now time.Time) []models.Submission {
	subs, err := s.store.AcceptedDueBy(ctx, now)
	if err != nil {
		log.Printf("[ReleaseCycle] list due: %v", err)
		return nil
	}

	var published []models.Submission
	for i := range subs {
		if ctx.Err() != nil {
			return published
		}
		sub := subs[i]

		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		handle, err := s.publisher.Post(callCtx, &sub)
		cancel()
		if err != nil {
			log.Printf("[ReleaseCycle] publish submission %d: %v", sub.SubmissionID, err)
			continue
		}

		if err := s.store.MarkReleased(ctx, sub.SubmissionID, handle, nil); err != nil {
			log.Printf("[ReleaseCycle] mark released %d (handle %s): %v", sub.SubmissionID, handle, err)
			continue
		}
		handleCopy := handle
		sub.PublicHandle = &handleCopy
		published = append(published, sub)
	}
	return published
}

func (s *ReleaseService) notifyReleased(ctx context.Context, published []models.Submission) {
	if s.notifier == nil {
		return
	}
	for i := range published {
		sub := &published[i]
		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		err := s.notifier.Send(callCtx, sub.UserID, fmt.Sprintf(
			"🎉 Your submission %q is now live!", sub.Title))
		cancel()
		if err != nil {
			log.Printf("[ReleaseCycle] notify owner %d: %v", sub.UserID, err)
		}
	}
}

// acquireCycleLock takes the MySQL advisory lock without waiting. The
// returned func releases it; both are nil when no db is configured.
func (s *ReleaseService) acquireCycleLock(ctx context.Context) (func() error, error) {
	if s.db == nil {
		return nil, nil
	}

	var ok int
	if err := s.db.WithContext(ctx).Raw("SELECT GET_LOCK(?, 0)", releaseCycleLockName).Scan(&ok).Error; err != nil {
		return nil, err
	}
	if ok != 1 {
		return nil, ErrCycleAlreadyRunning
	}

	return func() error {
		var released int
		return s.db.Raw("SELECT RELEASE_LOCK(?)", releaseCycleLockName).Scan(&released).Error
	}, nil
}
