package models

import "time"

// Batch groups accepted submissions that share a release cycle. Member
// count is derived from submissions.batch_id; only normal-queue batches
// have a capacity.
type Batch struct {
	BatchID   int       `gorm:"primaryKey;column:batch_id" json:"batch_id"`
	BatchCode string    `gorm:"column:batch_code;unique" json:"batch_code"`
	QueueType QueueType `gorm:"column:queue_type" json:"queue_type"`
	CycleDate string    `gorm:"column:cycle_date" json:"cycle_date"` // YYYY-MM-DD (UTC)
	CreateAt  time.Time `gorm:"column:create_at" json:"create_at"`
}

// TableName overrides
func (Batch) TableName() string {
	return "batches"
}
