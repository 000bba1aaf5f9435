// models/noshow_event.go
package models

import "time"

const NoShowEventTable = "elp_no_show_events"

// NoShowEvent 追加型台账，只写不改不删，按滑动窗口计数
type NoShowEvent struct {
	ID            string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string    `gorm:"type:uuid;index;not null" json:"userId"`
	ReservationID string    `gorm:"type:uuid;index" json:"reservationId"`
	OccurredAt    time.Time `gorm:"index;not null" json:"occurredAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (NoShowEvent) TableName() string { return NoShowEventTable }
