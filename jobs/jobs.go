// jobs/jobs.go
// 调度层：把固定节奏表绑到扫描/评分任务上。
// 每个任务包一层 Redis 互斥 + 结果快照；任务失败只记日志，
// 靠下一个调度周期自然重试。
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"equiploan/compliance"
	"equiploan/jobstate"

	"github.com/robfig/cron/v3"
)

const (
	JobOverdueScan     = "overdue_scan"
	JobNoShowScan      = "no_show_scan"
	JobDueSoonReminder = "due_soon_reminders"
	JobExpiredCleanup  = "expired_cleanup"
	JobDailySummary    = "daily_summary"
	JobWeeklyScoring   = "weekly_scoring"
)

var ErrUnknownJob = errors.New("unknown job")

type jobFunc func(ctx context.Context, now time.Time) (any, error)

type Runner struct {
	sched *cron.Cron
	state *jobstate.Store
	loc   *time.Location
	funcs map[string]jobFunc
}

func New(scanner *compliance.Scanner, scoring *compliance.ScoringJob, state *jobstate.Store, loc *time.Location) (*Runner, error) {
	if loc == nil {
		loc = time.UTC
	}
	r := &Runner{
		sched: cron.New(cron.WithLocation(loc)),
		state: state,
		loc:   loc,
		funcs: map[string]jobFunc{
			JobOverdueScan: func(ctx context.Context, now time.Time) (any, error) {
				return scanner.ScanOverdueLoans(ctx, now)
			},
			JobNoShowScan: func(ctx context.Context, now time.Time) (any, error) {
				return scanner.ScanNoShows(ctx, now)
			},
			JobDueSoonReminder: func(ctx context.Context, now time.Time) (any, error) {
				return scanner.SendDueSoonReminders(ctx, now)
			},
			JobExpiredCleanup: func(ctx context.Context, now time.Time) (any, error) {
				return scanner.CleanupExpiredReservations(ctx, now)
			},
			JobDailySummary: func(ctx context.Context, now time.Time) (any, error) {
				return scoring.RunDailySummary(ctx, now)
			},
			JobWeeklyScoring: func(ctx context.Context, now time.Time) (any, error) {
				return scoring.RunWeekly(ctx, now)
			},
		},
	}

	schedules := map[string]string{
		JobOverdueScan:     "0 * * * *",    // 每小时
		JobNoShowScan:      "*/30 * * * *", // 每 30 分钟
		JobDueSoonReminder: "0 9 * * *",    // 每天 09:00
		JobExpiredCleanup:  "0 */2 * * *",  // 每 2 小时
		JobDailySummary:    "0 0 * * *",    // 每天 00:00
		JobWeeklyScoring:   "0 0 * * 0",    // 每周日 00:00
	}
	for name, spec := range schedules {
		name := name
		if _, err := r.sched.AddFunc(spec, func() { _, _ = r.RunByName(context.Background(), name) }); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", name, err)
		}
	}
	return r, nil
}

func (r *Runner) Start() { r.sched.Start() }

func (r *Runner) Stop() {
	ctx := r.sched.Stop()
	<-ctx.Done()
}

func (r *Runner) JobNames() []string {
	return []string{
		JobOverdueScan, JobNoShowScan, JobDueSoonReminder,
		JobExpiredCleanup, JobDailySummary, JobWeeklyScoring,
	}
}

// RunByName 手动触发与定时触发共用的入口
func (r *Runner) RunByName(ctx context.Context, name string) (any, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return nil, ErrUnknownJob
	}
	return r.run(ctx, name, fn)
}

func (r *Runner) run(ctx context.Context, name string, fn jobFunc) (any, error) {
	token, locked, err := r.state.TryLock(ctx, name)
	if err != nil {
		// Redis 不可用时退化为无锁运行，幂等性由存储层约束兜底
		log.Printf("job %s: lock unavailable, running without: %v", name, err)
	} else if !locked {
		log.Printf("job %s: previous run still holds the lock, skipping", name)
		return nil, nil
	} else {
		defer r.state.Unlock(ctx, name, token)
	}

	started := time.Now().In(r.loc)
	log.Printf("job %s: start", name)
	result, runErr := fn(ctx, started)

	rec := jobstate.RunRecord{
		Job:        name,
		StartedAt:  started,
		FinishedAt: time.Now().In(r.loc),
		OK:         runErr == nil,
		Result:     result,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
		log.Printf("job %s: failed: %v", name, runErr)
	} else {
		log.Printf("job %s: done in %s", name, rec.FinishedAt.Sub(started))
	}
	if err := r.state.SaveResult(ctx, rec); err != nil {
		log.Printf("job %s: save result: %v", name, err)
	}
	return result, runErr
}
