// compliance/scanner.go
// 定时扫描的编排层：逐条处理，单条失败收进错误列表继续扫，
// 顶层失败（查不到输入集）才向调度方冒泡。
package compliance

import (
	"context"
	"fmt"
	"log"
	"time"

	"equiploan/db"
	"equiploan/models"
)

// 到期提醒窗口：应还时间落在未来 24 小时内
const DueSoonWindow = 24 * time.Hour

type ScanError struct {
	RecordID string `json:"recordId"`
	Message  string `json:"message"`
}

// ScanResult 每次运行必返回，部分失败也带着已完成的计数
type ScanResult struct {
	Job        string      `json:"job"`
	Scanned    int         `json:"scanned"`
	NewAlerts  int         `json:"newAlerts"`
	Escalated  int         `json:"escalatedAlerts"`
	RepeatOff  int         `json:"repeatOffenderAlerts"`
	Claimed    int         `json:"claimed"`
	Notified   int         `json:"notified"`
	Errors     []ScanError `json:"errors"`
	StartedAt  time.Time   `json:"startedAt"`
	FinishedAt time.Time   `json:"finishedAt"`
}

func (r *ScanResult) fail(recordID string, err error) {
	r.Errors = append(r.Errors, ScanError{RecordID: recordID, Message: err.Error()})
	log.Printf("%s: record %s: %v", r.Job, recordID, err)
}

type Scanner struct {
	repo    *db.Repo
	tracker *NoShowTracker
	loc     *time.Location
}

func NewScanner(repo *db.Repo, loc *time.Location) *Scanner {
	if loc == nil {
		loc = time.UTC
	}
	return &Scanner{repo: repo, tracker: NewNoShowTracker(repo), loc: loc}
}

func (s *Scanner) Tracker() *NoShowTracker { return s.tracker }

// ScanOverdueLoans 逾期扫描（每小时）。
// 输入集：borrowed / overdue 的借用单；逐条算逾期天数，没到期跳过，
// 有未解决告警则尝试升级，没有则按当前天数建告警；
// borrowed → overdue 的转换在这里单向推进，并给借用人和管理员发通知。
func (s *Scanner) ScanOverdueLoans(ctx context.Context, now time.Time) (*ScanResult, error) {
	res := &ScanResult{Job: "overdue_scan", StartedAt: now}
	defer func() { res.FinishedAt = time.Now().UTC() }()

	loans, err := s.repo.ListLoansByStatus(ctx, models.LoanBorrowed, models.LoanOverdue)
	if err != nil {
		return res, fmt.Errorf("list loans: %w", err)
	}

	for i := range loans {
		loan := &loans[i]
		res.Scanned++

		days := DaysOverdue(loan.ExpectedReturnAt, now, s.loc)
		if days < 0 {
			continue
		}
		if err := s.processOverdueLoan(ctx, loan, days, now, res); err != nil {
			res.fail(loan.ID, err)
		}
	}

	log.Printf("overdue scan done: scanned=%d new=%d escalated=%d errors=%d",
		res.Scanned, res.NewAlerts, res.Escalated, len(res.Errors))
	return res, nil
}

func (s *Scanner) processOverdueLoan(ctx context.Context, loan *models.Loan, days int, now time.Time, res *ScanResult) error {
	prio := OverduePriority(days)

	existing, err := s.repo.FindUnresolvedAlert(ctx, loan.ID, models.AlertOverdueLoan)
	if err != nil {
		return fmt.Errorf("alert lookup: %w", err)
	}
	if existing != nil {
		escalated, err := s.repo.EscalateAlert(ctx, existing.ID, prio, now)
		if err != nil {
			return fmt.Errorf("escalate alert: %w", err)
		}
		if escalated {
			res.Escalated++
		}
	} else {
		a := &models.Alert{
			Type:       models.AlertOverdueLoan,
			Priority:   prio,
			SourceID:   loan.ID,
			SourceType: "loan",
			SourceData: models.JSONMap{
				"loanId":           loan.ID,
				"userId":           loan.UserID,
				"equipmentId":      loan.EquipmentID,
				"expectedReturnAt": loan.ExpectedReturnAt.Format(time.RFC3339),
				"daysOverdue":      days,
				"quickActions":     models.OverdueQuickActions(loan.ID, loan.UserID),
			},
		}
		switch err := s.repo.CreateAlert(ctx, a); {
		case err == nil:
			res.NewAlerts++
		case err == db.ErrAlertExists:
			// 并发扫描先插了一条，按「已存在」走升级
			if existing, ferr := s.repo.FindUnresolvedAlert(ctx, loan.ID, models.AlertOverdueLoan); ferr == nil && existing != nil {
				if escalated, eerr := s.repo.EscalateAlert(ctx, existing.ID, prio, now); eerr == nil && escalated {
					res.Escalated++
				}
			}
		default:
			return fmt.Errorf("create alert: %w", err)
		}
	}

	// 条件更新保证 borrowed → overdue 只生效一次，通知也只发一轮
	transitioned, err := s.repo.MarkLoanOverdue(ctx, loan.ID, now)
	if err != nil {
		return fmt.Errorf("mark overdue: %w", err)
	}
	if transitioned {
		res.Claimed++
		s.notifyOverdue(ctx, loan, days)
	}
	return nil
}

// notifyOverdue 借用人一条 + 管理员各一条 + 一条审计；
// 都是尽力而为的二级写，失败不影响主转换。
func (s *Scanner) notifyOverdue(ctx context.Context, loan *models.Loan, days int) {
	body := fmt.Sprintf("借用单 %s 已逾期 %d 天，请尽快归还设备。", loan.ID, days)
	n := &models.Notification{
		UserID:  loan.UserID,
		Kind:    "loan_overdue",
		Title:   "设备借用已逾期",
		Body:    body,
		RefType: "loan",
		RefID:   loan.ID,
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		log.Printf("overdue notify user %s: %v", loan.UserID, err)
	}

	admins, err := s.repo.ListAdmins(ctx)
	if err != nil {
		log.Printf("overdue notify admins: %v", err)
	} else {
		for _, a := range admins {
			an := &models.Notification{
				UserID:  a.ID,
				Kind:    "loan_overdue_admin",
				Title:   "有设备借用逾期",
				Body:    body,
				RefType: "loan",
				RefID:   loan.ID,
			}
			if err := s.repo.CreateNotification(ctx, an); err != nil {
				log.Printf("overdue notify admin %s: %v", a.ID, err)
			}
		}
	}

	if _, err := s.repo.LogActivity(ctx, "loan_marked_overdue", "loan", loan.ID,
		fmt.Sprintf("days_overdue=%d", days)); err != nil {
		log.Printf("overdue activity log: %v", err)
	}
}

// ScanNoShows 爽约扫描（每 30 分钟）。
// 先抢 ready → no_show 的条件转换，抢到才建告警、记台账；
// 扫完后对本轮涉及的用户做累犯判定。
func (s *Scanner) ScanNoShows(ctx context.Context, now time.Time) (*ScanResult, error) {
	res := &ScanResult{Job: "no_show_scan", StartedAt: now}
	defer func() { res.FinishedAt = time.Now().UTC() }()

	ready, err := s.repo.ListReadyReservations(ctx)
	if err != nil {
		return res, fmt.Errorf("list ready reservations: %w", err)
	}

	touched := map[string]bool{}
	for i := range ready {
		rv := &ready[i]
		res.Scanned++

		if !IsNoShow(rv, now) {
			continue
		}
		if err := s.processNoShow(ctx, rv, now, res, touched); err != nil {
			res.fail(rv.ID, err)
		}
	}

	for userID := range touched {
		offender, count, err := s.tracker.IsRepeatOffender(ctx, userID, now)
		if err != nil {
			res.fail(userID, fmt.Errorf("repeat offender check: %w", err))
			continue
		}
		if !offender {
			continue
		}
		if _, err := s.repo.UpsertRepeatOffenderAlert(ctx, userID, count, now); err != nil {
			res.fail(userID, fmt.Errorf("repeat offender alert: %w", err))
			continue
		}
		res.RepeatOff++
	}

	log.Printf("no-show scan done: scanned=%d new=%d repeat=%d errors=%d",
		res.Scanned, res.NewAlerts, res.RepeatOff, len(res.Errors))
	return res, nil
}

func (s *Scanner) processNoShow(ctx context.Context, rv *models.Reservation, now time.Time, res *ScanResult, touched map[string]bool) error {
	claimed, err := s.repo.ClaimReservationNoShow(ctx, rv.ID, now)
	if err != nil {
		return fmt.Errorf("claim no-show: %w", err)
	}
	if !claimed {
		// 过期清理或并发扫描先到，这条归它
		return nil
	}
	res.Claimed++

	a := &models.Alert{
		Type:       models.AlertNoShowReservation,
		Priority:   models.PriorityHigh,
		SourceID:   rv.ID,
		SourceType: "reservation",
		SourceData: models.JSONMap{
			"reservationId": rv.ID,
			"userId":        rv.UserID,
			"equipmentId":   rv.EquipmentID,
			"startAt":       rv.StartAt.Format(time.RFC3339),
			"quickActions":  models.NoShowQuickActions(rv.ID, rv.UserID),
		},
	}
	if err := s.repo.CreateAlert(ctx, a); err != nil && err != db.ErrAlertExists {
		return fmt.Errorf("create alert: %w", err)
	} else if err == nil {
		res.NewAlerts++
	}

	// 二级写，内部吞错
	s.tracker.Record(ctx, rv.UserID, rv.ID, now)
	touched[rv.UserID] = true
	return nil
}

// CleanupExpiredReservations 过期清理（每 2 小时）。
// 同样的 2 小时规则，但只回收：ready → expired 并释放设备，不罚用户。
func (s *Scanner) CleanupExpiredReservations(ctx context.Context, now time.Time) (*ScanResult, error) {
	res := &ScanResult{Job: "expired_cleanup", StartedAt: now}
	defer func() { res.FinishedAt = time.Now().UTC() }()

	ready, err := s.repo.ListReadyReservations(ctx)
	if err != nil {
		return res, fmt.Errorf("list ready reservations: %w", err)
	}

	for i := range ready {
		rv := &ready[i]
		res.Scanned++

		if !IsReservationExpired(rv, now) {
			continue
		}
		claimed, err := s.repo.ClaimReservationExpired(ctx, rv.ID, now)
		if err != nil {
			res.fail(rv.ID, err)
			continue
		}
		if !claimed {
			continue
		}
		res.Claimed++
		if _, err := s.repo.LogActivity(ctx, "reservation_expired", "reservation", rv.ID, ""); err != nil {
			log.Printf("expired cleanup activity log: %v", err)
		}
	}

	log.Printf("expired cleanup done: scanned=%d expired=%d errors=%d",
		res.Scanned, res.Claimed, len(res.Errors))
	return res, nil
}

// SendDueSoonReminders 到期提醒（每天 09:00）
func (s *Scanner) SendDueSoonReminders(ctx context.Context, now time.Time) (*ScanResult, error) {
	res := &ScanResult{Job: "due_soon_reminders", StartedAt: now}
	defer func() { res.FinishedAt = time.Now().UTC() }()

	loans, err := s.repo.ListLoansDueBetween(ctx, now, now.Add(DueSoonWindow))
	if err != nil {
		return res, fmt.Errorf("list due-soon loans: %w", err)
	}

	for i := range loans {
		loan := &loans[i]
		res.Scanned++

		n := &models.Notification{
			UserID:  loan.UserID,
			Kind:    "loan_due_soon",
			Title:   "设备即将到期",
			Body:    fmt.Sprintf("借用单 %s 将于 %s 到期，请按时归还。", loan.ID, loan.ExpectedReturnAt.In(s.loc).Format("2006-01-02 15:04")),
			RefType: "loan",
			RefID:   loan.ID,
		}
		if err := s.repo.CreateNotification(ctx, n); err != nil {
			res.fail(loan.ID, err)
			continue
		}
		res.Notified++
	}

	log.Printf("due-soon reminders done: scanned=%d notified=%d errors=%d",
		res.Scanned, res.Notified, len(res.Errors))
	return res, nil
}
