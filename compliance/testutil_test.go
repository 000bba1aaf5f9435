package compliance_test

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"equiploan/db"
	"equiploan/models"
)

func newTestRepo(t *testing.T) *db.Repo {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	// 内存库：多连接会各自拿到空库
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(conn))
	return db.NewRepo(conn)
}

func seedUser(t *testing.T, repo *db.Repo, role string) *models.User {
	t.Helper()
	u := &models.User{
		ID:          uuid.NewString(),
		Username:    "u-" + uuid.NewString()[:8],
		DisplayName: "Test User",
		Role:        role,
	}
	require.NoError(t, repo.DB.Create(u).Error)
	return u
}

func seedEquipment(t *testing.T, repo *db.Repo, inUse bool) *models.Equipment {
	t.Helper()
	e := &models.Equipment{
		ID:     uuid.NewString(),
		Serial: "SN-" + uuid.NewString()[:8],
		Name:   "Oscilloscope",
		Status: "active",
		InUse:  inUse,
	}
	require.NoError(t, repo.DB.Create(e).Error)
	return e
}

func seedLoan(t *testing.T, repo *db.Repo, userID, equipmentID, status string, borrowedAt, expectedReturnAt time.Time) *models.Loan {
	t.Helper()
	l := &models.Loan{
		ID:               uuid.NewString(),
		UserID:           userID,
		EquipmentID:      equipmentID,
		Status:           status,
		BorrowedAt:       borrowedAt,
		ExpectedReturnAt: expectedReturnAt,
	}
	require.NoError(t, repo.CreateLoan(context.Background(), l))
	return l
}

func seedReservation(t *testing.T, repo *db.Repo, userID, equipmentID, status string, startAt time.Time) *models.Reservation {
	t.Helper()
	rv := &models.Reservation{
		ID:          uuid.NewString(),
		UserID:      userID,
		EquipmentID: equipmentID,
		Status:      status,
		StartAt:     startAt,
		EndAt:       startAt.Add(4 * time.Hour),
	}
	require.NoError(t, repo.CreateReservation(context.Background(), rv))
	return rv
}

func countAlerts(t *testing.T, repo *db.Repo, typ string, unresolvedOnly bool) int64 {
	t.Helper()
	tx := repo.DB.Model(&models.Alert{}).Where("type = ?", typ)
	if unresolvedOnly {
		tx = tx.Where("is_resolved = FALSE")
	}
	var n int64
	require.NoError(t, tx.Count(&n).Error)
	return n
}
