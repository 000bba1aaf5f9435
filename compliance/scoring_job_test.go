package compliance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equiploan/compliance"
	"equiploan/models"
)

// 8/10 按时归还 + 1/5 爽约 → score 80，good
func TestRunWeekly_ScoresUsersFromHistory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC)

	user := seedUser(t, repo, "member")
	eq := seedEquipment(t, repo, false)

	mkReturned := func(late bool) {
		borrowed := now.Add(-30 * 24 * time.Hour)
		expected := borrowed.Add(48 * time.Hour)
		actual := expected.Add(-time.Hour)
		if late {
			actual = expected.Add(24 * time.Hour)
		}
		l := seedLoan(t, repo, user.ID, eq.ID, models.LoanReturned, borrowed, expected)
		require.NoError(t, repo.DB.Model(l).Update("actual_return_at", actual).Error)
	}
	for i := 0; i < 8; i++ {
		mkReturned(false)
	}
	mkReturned(true)
	mkReturned(true)

	for i := 0; i < 4; i++ {
		seedReservation(t, repo, user.ID, eq.ID, models.ReservationCompleted, now.Add(-20*24*time.Hour))
	}
	rv := seedReservation(t, repo, user.ID, eq.ID, models.ReservationNoShow, now.Add(-10*24*time.Hour))
	require.NoError(t, repo.DB.Model(rv).Update("is_no_show", true).Error)

	job := compliance.NewScoringJob(repo, time.UTC, 0)
	sum, err := job.RunWeekly(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.UsersScored)
	assert.Empty(t, sum.Errors)

	rec, err := repo.FindReliabilityRecord(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, rec.TotalLoans)
	assert.Equal(t, 8, rec.OnTimeReturns)
	assert.Equal(t, 2, rec.LateReturns)
	assert.InDelta(t, 0.8, rec.OnTimeReturnRate, 1e-9)
	assert.Equal(t, 5, rec.TotalReservations)
	assert.Equal(t, 1, rec.NoShows)
	assert.InDelta(t, 0.2, rec.NoShowRate, 1e-9)
	assert.Equal(t, 80, rec.ReliabilityScore)
	assert.Equal(t, models.TierGood, rec.Classification)
	assert.False(t, rec.IsFlagged)
}

// 无历史按良好处理：按时率 1、爽约率 0 → 满分
func TestRunWeekly_NoHistoryDefaults(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC)

	user := seedUser(t, repo, "member")

	job := compliance.NewScoringJob(repo, time.UTC, 0)
	_, err := job.RunWeekly(ctx, now)
	require.NoError(t, err)

	rec, err := repo.FindReliabilityRecord(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, rec.ReliabilityScore)
	assert.Equal(t, models.TierExcellent, rec.Classification)
	assert.InDelta(t, 1.0, rec.OnTimeReturnRate, 1e-9)
	assert.InDelta(t, 0.0, rec.NoShowRate, 1e-9)
}

// 连续爽约的用户被打标
func TestRunWeekly_FlagsPoorUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC)

	user := seedUser(t, repo, "member")
	eq := seedEquipment(t, repo, false)
	for i := 0; i < 3; i++ {
		rv := seedReservation(t, repo, user.ID, eq.ID, models.ReservationNoShow, now.Add(-10*24*time.Hour))
		require.NoError(t, repo.DB.Model(rv).Update("is_no_show", true).Error)
	}
	// 全部逾期未还
	seedLoan(t, repo, user.ID, eq.ID, models.LoanOverdue,
		now.Add(-20*24*time.Hour), now.Add(-18*24*time.Hour))

	job := compliance.NewScoringJob(repo, time.UTC, 0)
	_, err := job.RunWeekly(ctx, now)
	require.NoError(t, err)

	rec, err := repo.FindReliabilityRecord(ctx, user.ID)
	require.NoError(t, err)
	// onTime 0/1 → 0，noShow 3/3 → 1，score = 0
	assert.Equal(t, 0, rec.ReliabilityScore)
	assert.Equal(t, models.TierPoor, rec.Classification)
	assert.True(t, rec.IsFlagged)
}

func TestRunWeekly_UtilizationClassification(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC)

	user := seedUser(t, repo, "member")
	busy := seedEquipment(t, repo, true)
	idle := seedEquipment(t, repo, false)

	// 占满整个窗口（未归还 → 截到 now）
	seedLoan(t, repo, user.ID, busy.ID, models.LoanBorrowed,
		now.Add(-10*24*time.Hour), now.Add(24*time.Hour))

	job := compliance.NewScoringJob(repo, time.UTC, 7*24*time.Hour)
	sum, err := job.RunWeekly(ctx, now)
	require.NoError(t, err)
	require.Len(t, sum.Utilization, 2)

	byID := map[string]models.UtilizationRecord{}
	for _, u := range sum.Utilization {
		byID[u.EquipmentID] = u
	}

	assert.InDelta(t, 1.0, byID[busy.ID].Rate, 1e-9)
	assert.Equal(t, models.UtilizationHighDemand, byID[busy.ID].Classification)

	assert.Equal(t, 0.0, byID[idle.ID].Rate)
	assert.Equal(t, models.UtilizationIdle, byID[idle.ID].Classification)
	assert.Equal(t, 1, sum.UtilCounts[models.UtilizationHighDemand])
	assert.Equal(t, 1, sum.UtilCounts[models.UtilizationIdle])
}

// 同一周期重复生成幂等覆盖
func TestRunWeekly_ReportUpsertIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC)

	seedUser(t, repo, "member")

	job := compliance.NewScoringJob(repo, time.UTC, 0)
	sum1, err := job.RunWeekly(ctx, now)
	require.NoError(t, err)
	_, err = job.RunWeekly(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)

	var n int64
	require.NoError(t, repo.DB.Model(&models.Report{}).
		Where("type = ? AND period = ?", models.ReportWeeklyScoring, sum1.Period).
		Count(&n).Error)
	assert.EqualValues(t, 1, n)

	rep, err := repo.FindReport(ctx, models.ReportWeeklyScoring, sum1.Period)
	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.EqualValues(t, 1, rep.Payload["usersScored"])
}

func TestRunDailySummary(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC)

	user := seedUser(t, repo, "member")
	eq := seedEquipment(t, repo, true)
	seedLoan(t, repo, user.ID, eq.ID, models.LoanOverdue,
		now.Add(-5*24*time.Hour), now.Add(-3*24*time.Hour))
	require.NoError(t, repo.AppendNoShowEvent(ctx, user.ID, "", now.Add(-12*time.Hour)))

	job := compliance.NewScoringJob(repo, time.UTC, 0)
	rep, err := job.RunDailySummary(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, models.ReportDailySummary, rep.Type)
	assert.Equal(t, "2026-04-11", rep.Period) // 统计的是前一日
	assert.EqualValues(t, 1, rep.Payload["overdueLoans"])
	assert.EqualValues(t, 1, rep.Payload["noShowEvents"])

	// 重复生成同期报表只覆盖
	_, err = job.RunDailySummary(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	var n int64
	require.NoError(t, repo.DB.Model(&models.Report{}).
		Where("type = ?", models.ReportDailySummary).
		Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

// 夏令时切换日不是 24 小时，切日窗口必须按日历日回退
func TestRunDailySummary_DSTTransition(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2026-03-08 纽约春令时切换（23 小时的一天），
	// 次日 00:00 统计 03-08 全天
	now := time.Date(2026, 3, 9, 0, 0, 0, 0, loc)
	user := seedUser(t, repo, "member")

	// 落在 03-08 内：应计入
	require.NoError(t, repo.AppendNoShowEvent(ctx, user.ID, "",
		time.Date(2026, 3, 8, 12, 0, 0, 0, loc)))
	// 03-07 23:30：按日历日在窗口外
	require.NoError(t, repo.AppendNoShowEvent(ctx, user.ID, "",
		time.Date(2026, 3, 7, 23, 30, 0, 0, loc)))

	job := compliance.NewScoringJob(repo, loc, 0)
	rep, err := job.RunDailySummary(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-08", rep.Period)
	assert.EqualValues(t, 1, rep.Payload["noShowEvents"])
}
