// models/report.go
package models

import "time"

const ReportTable = "elp_reports"

const (
	ReportDailySummary  = "daily_summary"
	ReportWeeklyScoring = "weekly_scoring"
)

// Report 以 (type, period) 为键 upsert，同一周期重复生成会整体覆盖
type Report struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	Type   string `gorm:"size:40;uniqueIndex:idx_report_period;not null" json:"type"`
	Period string `gorm:"size:20;uniqueIndex:idx_report_period;not null" json:"period"` // YYYY-MM-DD / YYYY-Www

	Payload JSONMap `gorm:"type:jsonb" json:"payload"`

	GeneratedAt time.Time `gorm:"not null" json:"generatedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Report) TableName() string { return ReportTable }
