package db

import (
	"context"
	"time"

	"equiploan/models"

	"github.com/google/uuid"
)

// NoShowEvents（追加型台账）

func (r *Repo) AppendNoShowEvent(ctx context.Context, userID, reservationID string, occurredAt time.Time) error {
	e := &models.NoShowEvent{
		ID:            uuid.NewString(),
		UserID:        userID,
		ReservationID: reservationID,
		OccurredAt:    occurredAt,
	}
	return r.DB.WithContext(ctx).Create(e).Error
}

func (r *Repo) CountNoShowEventsSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.NoShowEvent{}).
		Where("user_id = ? AND occurred_at >= ?", userID, since).
		Count(&n).Error
	return n, err
}

func (r *Repo) CountNoShowEventsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.NoShowEvent{}).
		Where("occurred_at >= ? AND occurred_at < ?", from, to).
		Count(&n).Error
	return n, err
}
