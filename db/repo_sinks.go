package db

import (
	"context"
	"fmt"

	"equiploan/models"

	"github.com/google/uuid"
)

// 通知与审计都是只写下游，扫描任务不回读

func (r *Repo) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if err := r.DB.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *Repo) LogActivity(ctx context.Context, action, targetType, targetID, detail string) (*models.ActivityLog, error) {
	entry := &models.ActivityLog{
		ID:         uuid.NewString(),
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Detail:     detail,
	}
	if err := r.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("insert activity log: %w", err)
	}
	return entry, nil
}

func (r *Repo) CountNotificationsForUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}
