package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"equiploan/db"
	"equiploan/models"
)

func seedLoanWithEquipment(t *testing.T, repo *db.Repo, status string) (*models.Loan, *models.Equipment) {
	t.Helper()
	e := &models.Equipment{
		ID:     uuid.NewString(),
		Serial: "SN-" + uuid.NewString()[:8],
		Name:   "Projector",
		Status: "active",
		InUse:  true,
	}
	require.NoError(t, repo.DB.Create(e).Error)

	l := &models.Loan{
		ID:               uuid.NewString(),
		UserID:           uuid.NewString(),
		EquipmentID:      e.ID,
		Status:           status,
		BorrowedAt:       time.Now().UTC().Add(-72 * time.Hour),
		ExpectedReturnAt: time.Now().UTC().Add(-24 * time.Hour),
	}
	require.NoError(t, repo.CreateLoan(context.Background(), l))
	return l, e
}

func TestReturnLoan_CompletesAndReleasesEquipment(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	loan, equip := seedLoanWithEquipment(t, repo, models.LoanOverdue)

	admin := uuid.NewString()
	now := time.Now().UTC()
	got, err := repo.ReturnLoan(ctx, loan.ID, admin, now)
	require.NoError(t, err)
	assert.Equal(t, models.LoanReturned, got.Status)
	require.NotNil(t, got.ActualReturnAt)
	require.NotNil(t, got.ReturnedBy)
	assert.Equal(t, admin, *got.ReturnedBy)

	var e models.Equipment
	require.NoError(t, repo.DB.First(&e, "id = ?", equip.ID).Error)
	assert.False(t, e.InUse, "归还后设备应被释放")
}

func TestReturnLoan_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	loan, _ := seedLoanWithEquipment(t, repo, models.LoanBorrowed)

	first := time.Now().UTC().Add(-time.Hour)
	got1, err := repo.ReturnLoan(ctx, loan.ID, "admin-1", first)
	require.NoError(t, err)

	// 重复提交不改写首次归还时间和经手人
	got2, err := repo.ReturnLoan(ctx, loan.ID, "admin-2", time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, got2.ActualReturnAt.Equal(*got1.ActualReturnAt))
	assert.Equal(t, "admin-1", *got2.ReturnedBy)
}

func TestReturnLoan_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.ReturnLoan(context.Background(), uuid.NewString(), "admin", time.Now().UTC())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
