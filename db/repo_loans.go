package db

import (
	"context"
	"time"

	"equiploan/models"

	"gorm.io/gorm"
)

// Loans

func (r *Repo) CreateLoan(ctx context.Context, l *models.Loan) error {
	return r.DB.WithContext(ctx).Create(l).Error
}

func (r *Repo) FindLoanByID(ctx context.Context, id string) (*models.Loan, error) {
	var l models.Loan
	if err := r.DB.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// 逾期扫描的输入集：所有借出中 / 已逾期的借用单
func (r *Repo) ListLoansByStatus(ctx context.Context, statuses ...string) ([]models.Loan, error) {
	var ls []models.Loan
	err := r.DB.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("expected_return_at ASC").
		Find(&ls).Error
	return ls, err
}

// 到期提醒：借出中且应还时间落在 [now, now+window)
func (r *Repo) ListLoansDueBetween(ctx context.Context, from, to time.Time) ([]models.Loan, error) {
	var ls []models.Loan
	err := r.DB.WithContext(ctx).
		Where("status = ? AND expected_return_at >= ? AND expected_return_at < ?",
			models.LoanBorrowed, from, to).
		Order("expected_return_at ASC").
		Find(&ls).Error
	return ls, err
}

// MarkLoanOverdue 单向推进 borrowed → overdue，条件更新保证只生效一次
func (r *Repo) MarkLoanOverdue(ctx context.Context, id string, now time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Loan{}).
		Where("id = ? AND status = ?", id, models.LoanBorrowed).
		Updates(map[string]any{"status": models.LoanOverdue, "updated_at": now})
	return res.RowsAffected > 0, res.Error
}

// 评分用的全量历史计数：以是否真正借出过为准，
// pending/approved/rejected 不计入
type LoanStats struct {
	TotalLoans    int
	OnTimeReturns int
}

func (r *Repo) LoanStatsForUser(ctx context.Context, userID string) (LoanStats, error) {
	var s LoanStats
	err := r.DB.WithContext(ctx).Model(&models.Loan{}).
		Select(`COUNT(*) AS total_loans,
			COALESCE(SUM(CASE WHEN actual_return_at IS NOT NULL
				AND actual_return_at <= expected_return_at THEN 1 ELSE 0 END), 0) AS on_time_returns`).
		Where("user_id = ? AND status IN ?", userID,
			[]string{models.LoanBorrowed, models.LoanReturned, models.LoanOverdue}).
		Scan(&s).Error
	return s, err
}

// 利用率窗口：与 [from, to) 有交集的借用单（未归还视为仍占用）
func (r *Repo) ListLoansOverlapping(ctx context.Context, equipmentID string, from, to time.Time) ([]models.Loan, error) {
	var ls []models.Loan
	err := r.DB.WithContext(ctx).
		Where("equipment_id = ? AND status IN ? AND borrowed_at < ? AND (actual_return_at IS NULL OR actual_return_at > ?)",
			equipmentID,
			[]string{models.LoanBorrowed, models.LoanReturned, models.LoanOverdue},
			to, from).
		Find(&ls).Error
	return ls, err
}

func (r *Repo) CountLoansByStatus(ctx context.Context, statuses ...string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Loan{}).
		Where("status IN ?", statuses).
		Count(&n).Error
	return n, err
}

// ReturnLoan 归还：完成借用单并释放设备（borrow 流程属于外部协作方，
// 这里只保留归还路径给告警的 mark_returned 快捷操作使用）
func (r *Repo) ReturnLoan(ctx context.Context, loanID, returnedBy string, now time.Time) (*models.Loan, error) {
	var l models.Loan
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&l, "id = ?", loanID).Error; err != nil {
			return err
		}
		// 幂等：已归还直接返回
		if l.ActualReturnAt != nil {
			return nil
		}
		l.ActualReturnAt = &now
		l.ReturnedBy = &returnedBy
		l.Status = models.LoanReturned
		if err := tx.Save(&l).Error; err != nil {
			return err
		}
		return tx.Model(&models.Equipment{}).
			Where("id = ?", l.EquipmentID).
			Update("in_use", false).Error
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}
