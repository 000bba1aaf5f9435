// compliance/tracker.go
package compliance

import (
	"context"
	"log"
	"time"

	"equiploan/db"
)

const (
	// 滑动窗口 30 天内爽约 3 次算累犯
	RepeatOffenderWindow    = 30 * 24 * time.Hour
	RepeatOffenderThreshold = 3
)

// NoShowTracker 维护爽约台账：追加事件、滑动窗口计数、累犯判定
type NoShowTracker struct {
	repo *db.Repo
}

func NewNoShowTracker(repo *db.Repo) *NoShowTracker { return &NoShowTracker{repo: repo} }

// Record 尽力而为的二级写：失败只记日志，绝不拖垮调用方的主转换
func (t *NoShowTracker) Record(ctx context.Context, userID, reservationID string, occurredAt time.Time) {
	if err := t.repo.AppendNoShowEvent(ctx, userID, reservationID, occurredAt); err != nil {
		log.Printf("no-show ledger append failed (user=%s reservation=%s): %v", userID, reservationID, err)
	}
}

func (t *NoShowTracker) CountInWindow(ctx context.Context, userID string, now time.Time) (int, error) {
	n, err := t.repo.CountNoShowEventsSince(ctx, userID, now.Add(-RepeatOffenderWindow))
	return int(n), err
}

func (t *NoShowTracker) IsRepeatOffender(ctx context.Context, userID string, now time.Time) (bool, int, error) {
	n, err := t.CountInWindow(ctx, userID, now)
	if err != nil {
		return false, 0, err
	}
	return n >= RepeatOffenderThreshold, n, nil
}
