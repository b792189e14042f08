package models

import "time"

// SubmissionEvent is an append-only record of a status transition, written
// in the same transaction as the transition itself.
type SubmissionEvent struct {
	EventID      int              `gorm:"primaryKey;column:event_id" json:"event_id"`
	SubmissionID int              `gorm:"column:submission_id" json:"submission_id"`
	FromStatus   SubmissionStatus `gorm:"column:from_status" json:"from_status"`
	ToStatus     SubmissionStatus `gorm:"column:to_status" json:"to_status"`
	ActorID      *int             `gorm:"column:actor_id" json:"actor_id"` // nil when the scheduler is the actor
	Note         *string          `gorm:"column:note" json:"note"`
	CreatedAt    time.Time        `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table for SubmissionEvent.
func (SubmissionEvent) TableName() string {
	return "submission_events"
}
