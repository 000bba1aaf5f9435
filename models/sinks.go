// models/sinks.go
// 扫描任务只写不读的两个下游：站内通知、操作审计。
package models

import "time"

const NotificationTable = "elp_notifications"
const ActivityLogTable = "elp_activity_log"

type Notification struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"type:uuid;index;not null" json:"userId"`
	Kind   string `gorm:"size:40;not null" json:"kind"`
	Title  string `gorm:"size:200;not null" json:"title"`
	Body   string `gorm:"type:text" json:"body"`

	RefType string `gorm:"size:20" json:"refType,omitempty"`
	RefID   string `gorm:"type:uuid" json:"refId,omitempty"`

	ReadAt    *time.Time `gorm:"index" json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (Notification) TableName() string { return NotificationTable }

// ActivityLog 审计信息，actor 为空表示系统任务
type ActivityLog struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID    *string   `gorm:"type:uuid" json:"actorId,omitempty"`
	Action     string    `gorm:"size:60;not null" json:"action"`
	TargetType string    `gorm:"size:20" json:"targetType,omitempty"`
	TargetID   string    `gorm:"type:uuid" json:"targetId,omitempty"`
	Detail     string    `gorm:"size:255" json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (ActivityLog) TableName() string { return ActivityLogTable }
