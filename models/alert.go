// models/alert.go
package models

import "time"

const AlertTable = "elp_alerts"

const (
	AlertOverdueLoan       = "overdue_loan"
	AlertNoShowReservation = "no_show_reservation"
	AlertRepeatNoShowUser  = "repeat_no_show_user"
)

const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// PriorityRank 越小越严重；未知值按最低级处理
func PriorityRank(p string) int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// Alert 告警台账。
// 去重键 (source_id, type)：同一来源同一类型最多一条未解决告警，
// 由 Migrate 里的部分唯一索引兜底（见 db.Migrate）。
// 未解决期间 priority 只升不降；resolve 是终态。
type Alert struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	Type     string `gorm:"size:40;index:idx_alert_source;not null" json:"type"`
	Priority string `gorm:"size:10;not null" json:"priority"`

	SourceID   string  `gorm:"type:uuid;index:idx_alert_source;not null" json:"sourceId"`
	SourceType string  `gorm:"size:20;not null" json:"sourceType"` // loan/reservation/user
	SourceData JSONMap `gorm:"type:jsonb" json:"sourceData"`       // 触发时刻的展示快照 + quickActions

	IsResolved     bool       `gorm:"not null;default:false;index" json:"isResolved"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy     *string    `gorm:"type:uuid" json:"resolvedBy,omitempty"`
	ResolvedAction *string    `gorm:"size:60" json:"resolvedAction,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Alert) TableName() string { return AlertTable }

// QuickAction 前端直接消费的快捷操作描述，引擎只负责填充
type QuickAction struct {
	ID     string            `json:"id"`
	Label  string            `json:"label"`
	Action string            `json:"action"`
	Params map[string]string `json:"params"`
}

func OverdueQuickActions(loanID, userID string) []QuickAction {
	return []QuickAction{
		{ID: "contact_user", Label: "联系借用人", Action: "contact_user", Params: map[string]string{"userId": userID}},
		{ID: "mark_returned", Label: "登记归还", Action: "mark_returned", Params: map[string]string{"loanId": loanID}},
	}
}

func NoShowQuickActions(reservationID, userID string) []QuickAction {
	return []QuickAction{
		{ID: "contact_user", Label: "联系预约人", Action: "contact_user", Params: map[string]string{"userId": userID}},
		{ID: "cancel_reservation", Label: "取消预约", Action: "cancel_reservation", Params: map[string]string{"reservationId": reservationID}},
	}
}

func RepeatOffenderQuickActions(userID string) []QuickAction {
	return []QuickAction{
		{ID: "view_history", Label: "查看爽约记录", Action: "view_no_show_history", Params: map[string]string{"userId": userID}},
	}
}
