// models/equipment.go
package models

import "time"

const EquipmentTable = "elp_equipment"

type Equipment struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	Serial string `gorm:"size:120;uniqueIndex;not null" json:"serial"` // 唯一编号
	Name   string `gorm:"size:200;not null" json:"name"`
	Status string `gorm:"size:20;not null;default:'active'" json:"status"` // 生命周期：active/maintenance/retired
	InUse  bool   `gorm:"not null;default:false" json:"inUse"`             // 冗余列：被借走或被 ready 预约占用

	LastBorrowedAt *time.Time `gorm:"index" json:"lastBorrowedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Equipment) TableName() string { return EquipmentTable }
