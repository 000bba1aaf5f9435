// models/reliability.go
package models

import "time"

const ReliabilityTable = "elp_reliability_records"

const (
	TierExcellent = "excellent"
	TierGood      = "good"
	TierFair      = "fair"
	TierPoor      = "poor"
)

// ReliabilityRecord 每周评分任务全量重算并覆盖，无增量更新
type ReliabilityRecord struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`

	TotalLoans       int     `gorm:"not null;default:0" json:"totalLoans"`
	OnTimeReturns    int     `gorm:"not null;default:0" json:"onTimeReturns"`
	LateReturns      int     `gorm:"not null;default:0" json:"lateReturns"`
	OnTimeReturnRate float64 `gorm:"not null;default:0" json:"onTimeReturnRate"`

	TotalReservations int     `gorm:"not null;default:0" json:"totalReservations"`
	NoShows           int     `gorm:"not null;default:0" json:"noShows"`
	NoShowRate        float64 `gorm:"not null;default:0" json:"noShowRate"`

	ReliabilityScore int    `gorm:"not null;default:0" json:"reliabilityScore"`
	Classification   string `gorm:"size:20;not null" json:"classification"`
	IsFlagged        bool   `gorm:"not null;default:false;index" json:"isFlagged"`

	ComputedAt time.Time `gorm:"not null" json:"computedAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (ReliabilityRecord) TableName() string { return ReliabilityTable }

const (
	UtilizationHighDemand = "high_demand"
	UtilizationNormal     = "normal"
	UtilizationIdle       = "idle"
)

// UtilizationRecord 评分运行期间的内存结果，随周报落盘，不单独建表
type UtilizationRecord struct {
	EquipmentID    string     `json:"equipmentId"`
	Serial         string     `json:"serial"`
	BorrowedDays   float64    `json:"borrowedDays"`
	TotalDays      float64    `json:"totalDays"`
	Rate           float64    `json:"utilizationRate"`
	Classification string     `json:"classification"`
	LastBorrowedAt *time.Time `json:"lastBorrowedAt,omitempty"`
}
