// models/loan.go
package models

import "time"

const LoanTable = "elp_loans"

// Loan 状态机：pending → approved → borrowed → returned
// borrowed → overdue 由扫描任务单向推进，归还时再转 returned。
const (
	LoanPending  = "pending"
	LoanApproved = "approved"
	LoanRejected = "rejected"
	LoanBorrowed = "borrowed"
	LoanReturned = "returned"
	LoanOverdue  = "overdue"
)

type Loan struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	EquipmentID string `gorm:"type:uuid;index;not null" json:"equipmentId"`
	UserID      string `gorm:"type:uuid;index;not null" json:"userId"`
	Status      string `gorm:"size:20;index;not null;default:'pending'" json:"status"`

	BorrowedAt       time.Time  `gorm:"index;not null" json:"borrowedAt"`
	ExpectedReturnAt time.Time  `gorm:"index;not null" json:"expectedReturnAt"`
	ActualReturnAt   *time.Time `gorm:"index" json:"actualReturnAt,omitempty"`
	ReturnedBy       *string    `gorm:"type:uuid" json:"returnedBy,omitempty"`

	Note      string    `gorm:"size:255" json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Loan) TableName() string { return LoanTable }
