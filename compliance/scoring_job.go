// compliance/scoring_job.go
// 每周评分任务：全量重算用户可靠性、按窗口统计设备利用率，
// 结果落 ReliabilityRecord 与周报；另带每日汇总报表。
package compliance

import (
	"context"
	"fmt"
	"log"
	"time"

	"equiploan/db"
	"equiploan/models"
)

// 设备利用率的默认分析窗口
const DefaultUtilizationWindow = 7 * 24 * time.Hour

// DailyPeriod / WeeklyPeriod 报表周期键，统一用固定时区切日/切周
func DailyPeriod(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

func WeeklyPeriod(t time.Time, loc *time.Location) string {
	y, w := t.In(loc).ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w)
}

type ScoringJob struct {
	repo   *db.Repo
	loc    *time.Location
	window time.Duration
}

func NewScoringJob(repo *db.Repo, loc *time.Location, window time.Duration) *ScoringJob {
	if loc == nil {
		loc = time.UTC
	}
	if window <= 0 {
		window = DefaultUtilizationWindow
	}
	return &ScoringJob{repo: repo, loc: loc, window: window}
}

// ScoringSummary 周任务的运行结果，整体作为周报 payload 落盘
type ScoringSummary struct {
	UsersScored int                        `json:"usersScored"`
	Flagged     int                        `json:"flagged"`
	TierCounts  map[string]int             `json:"tierCounts"`
	Utilization []models.UtilizationRecord `json:"utilization"`
	UtilCounts  map[string]int             `json:"utilizationCounts"`
	Errors      []ScanError                `json:"errors"`
	GeneratedAt time.Time                  `json:"generatedAt"`
	Period      string                     `json:"period"`
	WindowDays  float64                    `json:"windowDays"`
}

// RunWeekly 逐用户/逐设备处理，单条失败收集后继续
func (j *ScoringJob) RunWeekly(ctx context.Context, now time.Time) (*ScoringSummary, error) {
	sum := &ScoringSummary{
		TierCounts:  map[string]int{},
		UtilCounts:  map[string]int{},
		GeneratedAt: now,
		Period:      WeeklyPeriod(now, j.loc),
		WindowDays:  j.window.Hours() / 24,
	}

	users, err := j.repo.ListUsers(ctx)
	if err != nil {
		return sum, fmt.Errorf("list users: %w", err)
	}
	for i := range users {
		u := &users[i]
		rec, err := j.scoreUser(ctx, u.ID, now)
		if err != nil {
			sum.Errors = append(sum.Errors, ScanError{RecordID: u.ID, Message: err.Error()})
			log.Printf("weekly scoring: user %s: %v", u.ID, err)
			continue
		}
		sum.UsersScored++
		sum.TierCounts[rec.Classification]++
		if rec.IsFlagged {
			sum.Flagged++
		}
	}

	equipment, err := j.repo.ListActiveEquipment(ctx)
	if err != nil {
		return sum, fmt.Errorf("list equipment: %w", err)
	}
	for i := range equipment {
		e := &equipment[i]
		rec, err := j.classifyEquipment(ctx, e, now)
		if err != nil {
			sum.Errors = append(sum.Errors, ScanError{RecordID: e.ID, Message: err.Error()})
			log.Printf("weekly scoring: equipment %s: %v", e.ID, err)
			continue
		}
		sum.Utilization = append(sum.Utilization, *rec)
		sum.UtilCounts[rec.Classification]++
	}

	if err := j.persistWeeklyReport(ctx, sum, now); err != nil {
		return sum, fmt.Errorf("persist weekly report: %w", err)
	}

	log.Printf("weekly scoring done: users=%d flagged=%d equipment=%d errors=%d",
		sum.UsersScored, sum.Flagged, len(sum.Utilization), len(sum.Errors))
	return sum, nil
}

// scoreUser 全量历史（不开窗）重算一个用户并覆盖其记录。
// 没有借用/预约历史按良好处理：按时率 1、爽约率 0。
func (j *ScoringJob) scoreUser(ctx context.Context, userID string, now time.Time) (*models.ReliabilityRecord, error) {
	ls, err := j.repo.LoanStatsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loan stats: %w", err)
	}
	rs, err := j.repo.ReservationStatsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reservation stats: %w", err)
	}

	onTimeRate := 1.0
	if ls.TotalLoans > 0 {
		onTimeRate = float64(ls.OnTimeReturns) / float64(ls.TotalLoans)
	}
	noShowRate := 0.0
	if rs.TotalReservations > 0 {
		noShowRate = float64(rs.NoShows) / float64(rs.TotalReservations)
	}

	score := ReliabilityScore(onTimeRate, noShowRate)
	rec := &models.ReliabilityRecord{
		UserID:            userID,
		TotalLoans:        ls.TotalLoans,
		OnTimeReturns:     ls.OnTimeReturns,
		LateReturns:       ls.TotalLoans - ls.OnTimeReturns,
		OnTimeReturnRate:  onTimeRate,
		TotalReservations: rs.TotalReservations,
		NoShows:           rs.NoShows,
		NoShowRate:        noShowRate,
		ReliabilityScore:  score,
		Classification:    ClassifyReliability(score),
		IsFlagged:         IsFlagged(score),
		ComputedAt:        now,
	}
	if err := j.repo.UpsertReliabilityRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("upsert record: %w", err)
	}
	return rec, nil
}

// classifyEquipment 统计窗口内的占用天数（未归还按仍占用截到 now）
func (j *ScoringJob) classifyEquipment(ctx context.Context, e *models.Equipment, now time.Time) (*models.UtilizationRecord, error) {
	from := now.Add(-j.window)
	loans, err := j.repo.ListLoansOverlapping(ctx, e.ID, from, now)
	if err != nil {
		return nil, fmt.Errorf("overlapping loans: %w", err)
	}

	var borrowed time.Duration
	var lastBorrowed *time.Time
	for i := range loans {
		l := &loans[i]
		start := l.BorrowedAt
		if start.Before(from) {
			start = from
		}
		end := now
		if l.ActualReturnAt != nil && l.ActualReturnAt.Before(now) {
			end = *l.ActualReturnAt
		}
		if end.After(start) {
			borrowed += end.Sub(start)
		}
		if lastBorrowed == nil || l.BorrowedAt.After(*lastBorrowed) {
			t := l.BorrowedAt
			lastBorrowed = &t
		}
	}
	// 历史上最后一次借出可能在窗口之外
	if lastBorrowed == nil && e.LastBorrowedAt != nil {
		lastBorrowed = e.LastBorrowedAt
	}

	borrowedDays := borrowed.Hours() / 24
	totalDays := j.window.Hours() / 24
	rate := UtilizationRate(borrowedDays, totalDays)

	return &models.UtilizationRecord{
		EquipmentID:    e.ID,
		Serial:         e.Serial,
		BorrowedDays:   borrowedDays,
		TotalDays:      totalDays,
		Rate:           rate,
		Classification: ClassifyUtilization(rate, lastBorrowed, now),
		LastBorrowedAt: lastBorrowed,
	}, nil
}

func (j *ScoringJob) persistWeeklyReport(ctx context.Context, sum *ScoringSummary, now time.Time) error {
	utilization := make([]any, 0, len(sum.Utilization))
	for _, u := range sum.Utilization {
		utilization = append(utilization, u)
	}
	rep := &models.Report{
		Type:   models.ReportWeeklyScoring,
		Period: sum.Period,
		Payload: models.JSONMap{
			"usersScored":       sum.UsersScored,
			"flagged":           sum.Flagged,
			"tierCounts":        sum.TierCounts,
			"utilizationCounts": sum.UtilCounts,
			"utilization":       utilization,
			"windowDays":        sum.WindowDays,
			"errorCount":        len(sum.Errors),
		},
		GeneratedAt: now,
	}
	return j.repo.UpsertReport(ctx, rep)
}

// RunDailySummary 每日 00:00 统计前一日的运营概况
func (j *ScoringJob) RunDailySummary(ctx context.Context, now time.Time) (*models.Report, error) {
	dayEnd := time.Date(now.In(j.loc).Year(), now.In(j.loc).Month(), now.In(j.loc).Day(), 0, 0, 0, 0, j.loc)
	// 按日历日回退，夏令时切换日不是 24 小时
	dayStart := dayEnd.AddDate(0, 0, -1)
	period := DailyPeriod(dayStart, j.loc)

	overdue, err := j.repo.CountLoansByStatus(ctx, models.LoanOverdue)
	if err != nil {
		return nil, fmt.Errorf("count overdue loans: %w", err)
	}
	out, err := j.repo.CountLoansByStatus(ctx, models.LoanBorrowed, models.LoanOverdue)
	if err != nil {
		return nil, fmt.Errorf("count open loans: %w", err)
	}
	openAlerts, err := j.repo.CountUnresolvedAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count alerts: %w", err)
	}
	noShows, err := j.repo.CountNoShowEventsBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("count no-shows: %w", err)
	}

	rep := &models.Report{
		Type:   models.ReportDailySummary,
		Period: period,
		Payload: models.JSONMap{
			"overdueLoans":     overdue,
			"loansOut":         out,
			"unresolvedAlerts": openAlerts,
			"noShowEvents":     noShows,
		},
		GeneratedAt: now,
	}
	if err := j.repo.UpsertReport(ctx, rep); err != nil {
		return nil, fmt.Errorf("persist daily report: %w", err)
	}
	log.Printf("daily summary %s: overdue=%d open_alerts=%d no_shows=%d", period, overdue, openAlerts, noShows)
	return rep, nil
}
