// models/reservation.go
package models

import "time"

const ReservationTable = "elp_reservations"

// ready → no_show / expired 两个转换只能由扫描任务推进，
// 且都以 status = 'ready' 为条件更新：离开 ready 即退出扫描集合。
const (
	ReservationPending   = "pending"
	ReservationApproved  = "approved"
	ReservationReady     = "ready"
	ReservationCompleted = "completed"
	ReservationCancelled = "cancelled"
	ReservationNoShow    = "no_show"
	ReservationExpired   = "expired"
)

type Reservation struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	EquipmentID string `gorm:"type:uuid;index;not null" json:"equipmentId"`
	UserID      string `gorm:"type:uuid;index;not null" json:"userId"`
	Status      string `gorm:"size:20;index;not null;default:'pending'" json:"status"`

	StartAt  time.Time `gorm:"index;not null" json:"startAt"`
	EndAt    time.Time `gorm:"not null" json:"endAt"`
	IsNoShow bool      `gorm:"not null;default:false" json:"isNoShow"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Reservation) TableName() string { return ReservationTable }
