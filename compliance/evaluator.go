// compliance/evaluator.go
// 纯函数时间窗口判定，无任何副作用；日历日截断统一用固定时区。
package compliance

import (
	"time"

	"equiploan/models"
)

// 取货宽限：ready 预约超过开始时间 2 小时算爽约/过期
const PickupGrace = 2 * time.Hour

// dateOf 截断到日历日后折算成 UTC 零点，天数差不受 DST 影响
func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysOverdue 两端都按日历日截断，floor((now-expected)/1d)；
// 未到期为负，调用方只在 >= 0 时动作。
func DaysOverdue(expectedReturnAt, now time.Time, loc *time.Location) int {
	return int(dateOf(now, loc).Sub(dateOf(expectedReturnAt, loc)) / (24 * time.Hour))
}

// OverduePriority 逾期天数 → 告警优先级
func OverduePriority(daysOverdue int) string {
	switch {
	case daysOverdue >= 3:
		return models.PriorityCritical
	case daysOverdue >= 1:
		return models.PriorityHigh
	case daysOverdue == 0:
		return models.PriorityMedium
	default:
		// 负值在上游已过滤，兜底给最低级
		return models.PriorityLow
	}
}

// IsNoShow 仅 ready 状态可判爽约；其他状态一律 false，防止重复处理
func IsNoShow(res *models.Reservation, now time.Time) bool {
	if res.Status != models.ReservationReady {
		return false
	}
	return now.After(res.StartAt.Add(PickupGrace))
}

// IsReservationExpired 与爽约同一个 2 小时规则，但走独立的清理路径：
// 置 expired 并释放设备，不记用户爽约。两条路径靠 status = 'ready'
// 的条件更新互斥，先改到的一方生效。
func IsReservationExpired(res *models.Reservation, now time.Time) bool {
	if res.Status != models.ReservationReady {
		return false
	}
	return now.After(res.StartAt.Add(PickupGrace))
}

// IsDueSoon 应还时间落在 [now, now+window)
func IsDueSoon(expectedReturnAt, now time.Time, window time.Duration) bool {
	if expectedReturnAt.Before(now) {
		return false
	}
	return expectedReturnAt.Sub(now) < window
}
