package models

import (
	"time"
)

// SubmissionStatus is the closed set of lifecycle states. DENIED and CLOSED
// are terminal; the release scheduler is the only writer of RELEASED and
// CLOSED.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusAccepted SubmissionStatus = "accepted"
	StatusDenied   SubmissionStatus = "denied"
	StatusReleased SubmissionStatus = "released"
	StatusClosed   SubmissionStatus = "closed"
)

// Valid reports whether s is one of the known statuses.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDenied, StatusReleased, StatusClosed:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s SubmissionStatus) Terminal() bool {
	return s == StatusDenied || s == StatusClosed
}

/// CanTransitionTo encodes the lifecycle:
// pending -> accepted | denied, accepted -> released, released -> closed.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusAccepted || next == StatusDenied
	case StatusAccepted:
		return next == StatusReleased
	case StatusReleased:
		return next == StatusClosed
	}
	return false
}

// QueueType selects the batching rule for a submission. Only the normal
// queue is capacity bounded.
type QueueType string

const (
	QueueNormal  QueueType = "normal"
	QueueSkip    QueueType = "skip"
	QueueSpecial QueueType = "special"
)

// NormalBatchCapacity is the fixed member limit of a normal-queue batch.
const NormalBatchCapacity = 15

// Valid reports whether q is one of the known queue types.
func (q QueueType) Valid() bool {
	switch q {
	case QueueNormal, QueueSkip, QueueSpecial:
		return true
	}
	return false
}

// Capacity returns the batch member limit for the queue, or 0 when the
// queue is unbounded.
func (q QueueType) Capacity() int {
	if q == QueueNormal {
		return NormalBatchCapacity
	}
	return 0
}

// Submission represents one item moving through the review -> release
// pipeline.
type Submission struct {
	SubmissionID     int              `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	SubmissionNumber string           `gorm:"column:submission_number;unique" json:"submission_number"`
	UserID           int              `gorm:"column:user_id" json:"user_id"`
	Title            string           `gorm:"column:title" json:"title"`
	QueueType        QueueType        `gorm:"column:queue_type" json:"queue_type"`
	Status           SubmissionStatus `gorm:"column:status" json:"status"`
	BatchID          *int             `gorm:"column:batch_id" json:"batch_id,omitempty"`
	ScheduledFor     *time.Time       `gorm:"column:scheduled_for" json:"scheduled_for,omitempty"`
	DenyReason       *string          `gorm:"column:deny_reason" json:"deny_reason,omitempty"`
	FeesPaid         *bool            `gorm:"column:fees_paid" json:"fees_paid,omitempty"`
	Currency         *string          `gorm:"column:currency" json:"currency,omitempty"`
	Rate             *string          `gorm:"column:rate" json:"rate,omitempty"`
	ImageURL         *string          `gorm:"column:image_url" json:"image_url,omitempty"`
	CardPayload      *string          `gorm:"column:card_payload" json:"card_payload,omitempty"`
	PublicHandle     *string          `gorm:"column:public_handle" json:"public_handle,omitempty"`
	ClosedAt         *time.Time       `gorm:"column:closed_at" json:"closed_at,omitempty"`
	CreateAt         time.Time        `gorm:"column:create_at" json:"create_at"`
	UpdateAt         time.Time        `gorm:"column:update_at" json:"update_at"`

	// Relations
	User  *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Batch *Batch `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
}

// TableName overrides
func (Submission) TableName() string {
	return "submissions"
}

// IsDue reports whether the submission is accepted and its scheduled
// release boundary is at or before now.
func (s *Submission) IsDue(now time.Time) bool {
	return s.Status == StatusAccepted && s.ScheduledFor != nil && !s.ScheduledFor.After(now)
}
