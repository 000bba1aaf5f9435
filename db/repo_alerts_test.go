package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
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
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(conn))
	return db.NewRepo(conn)
}

func mkAlert(sourceID string) *models.Alert {
	return &models.Alert{
		Type:       models.AlertOverdueLoan,
		Priority:   models.PriorityMedium,
		SourceID:   sourceID,
		SourceType: "loan",
		SourceData: models.JSONMap{"loanId": sourceID},
	}
}

func TestCreateAlert_DedupKey(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	sourceID := uuid.NewString()

	require.NoError(t, repo.CreateAlert(ctx, mkAlert(sourceID)))

	// 同键第二条：撞部分唯一索引
	err := repo.CreateAlert(ctx, mkAlert(sourceID))
	assert.ErrorIs(t, err, db.ErrAlertExists)

	// 不同类型不冲突
	other := mkAlert(sourceID)
	other.Type = models.AlertNoShowReservation
	require.NoError(t, repo.CreateAlert(ctx, other))

	// 解决掉以后允许出现新的未解决告警
	a, err := repo.FindUnresolvedAlert(ctx, sourceID, models.AlertOverdueLoan)
	require.NoError(t, err)
	require.NotNil(t, a)
	require.NoError(t, repo.ResolveAlert(ctx, a.ID, uuid.NewString(), "returned", time.Now().UTC()))
	require.NoError(t, repo.CreateAlert(ctx, mkAlert(sourceID)))
}

func TestEscalateAlert_MonotonicSeverity(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	a := mkAlert(uuid.NewString())
	require.NoError(t, repo.CreateAlert(ctx, a))

	// medium → high 生效
	ok, err := repo.EscalateAlert(ctx, a.ID, models.PriorityHigh, now)
	require.NoError(t, err)
	assert.True(t, ok)

	// high → medium 拒绝（只升不降）
	ok, err = repo.EscalateAlert(ctx, a.ID, models.PriorityMedium, now)
	require.NoError(t, err)
	assert.False(t, ok)

	// 同级空转
	ok, err = repo.EscalateAlert(ctx, a.ID, models.PriorityHigh, now)
	require.NoError(t, err)
	assert.False(t, ok)

	// high → critical 生效
	ok, err = repo.EscalateAlert(ctx, a.ID, models.PriorityCritical, now)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.FindAlertByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityCritical, got.Priority)
}

func TestEscalateAlert_ResolvedIsImmutable(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	a := mkAlert(uuid.NewString())
	require.NoError(t, repo.CreateAlert(ctx, a))
	require.NoError(t, repo.ResolveAlert(ctx, a.ID, uuid.NewString(), "dismissed", now))

	ok, err := repo.EscalateAlert(ctx, a.ID, models.PriorityCritical, now)
	require.NoError(t, err)
	assert.False(t, ok)

	// 终态不允许二次解决
	err = repo.ResolveAlert(ctx, a.ID, uuid.NewString(), "dismissed", now)
	assert.ErrorIs(t, err, db.ErrAlertResolved)

	got, err := repo.FindAlertByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, got.Priority)
	assert.True(t, got.IsResolved)
	require.NotNil(t, got.ResolvedAt)
	require.NotNil(t, got.ResolvedAction)
	assert.Equal(t, "dismissed", *got.ResolvedAction)
}

func TestUpsertRepeatOffenderAlert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	userID := uuid.NewString()

	created, err := repo.UpsertRepeatOffenderAlert(ctx, userID, 3, now)
	require.NoError(t, err)
	assert.True(t, created)

	// 再 upsert 只覆盖计数
	created, err = repo.UpsertRepeatOffenderAlert(ctx, userID, 4, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, created)

	a, err := repo.FindUnresolvedAlert(ctx, userID, models.AlertRepeatNoShowUser)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, models.PriorityHigh, a.Priority)
	assert.EqualValues(t, 4, a.SourceData["noShowCount"])

	out, err := repo.ListAlerts(ctx, models.AlertRepeatNoShowUser, false, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, out.Total)
}

func TestFindUnresolvedAlert_NoneIsNilNotError(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a, err := repo.FindUnresolvedAlert(ctx, uuid.NewString(), models.AlertOverdueLoan)
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestListAlerts_Filters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	a := mkAlert(uuid.NewString())
	require.NoError(t, repo.CreateAlert(ctx, a))
	b := mkAlert(uuid.NewString())
	b.Type = models.AlertNoShowReservation
	require.NoError(t, repo.CreateAlert(ctx, b))
	require.NoError(t, repo.ResolveAlert(ctx, b.ID, uuid.NewString(), "cancelled", now))

	out, err := repo.ListAlerts(ctx, "", false, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, out.Total)

	out, err = repo.ListAlerts(ctx, "", true, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, out.Total)

	out, err = repo.ListAlerts(ctx, models.AlertNoShowReservation, true, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, out.Total)
}
