package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"equiploan/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Alerts（告警台账）

// 去重键上已有未解决告警时 CreateAlert 返回它；
// 调用方按「已存在 → 走升级」处理
var ErrAlertExists = errors.New("unresolved alert already exists for source")

// ErrAlertResolved 已解决的告警是终态，不允许再改
var ErrAlertResolved = errors.New("alert already resolved")

func (r *Repo) FindAlertByID(ctx context.Context, id string) (*models.Alert, error) {
	var a models.Alert
	if err := r.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindUnresolvedAlert 去重键点查
func (r *Repo) FindUnresolvedAlert(ctx context.Context, sourceID, typ string) (*models.Alert, error) {
	var a models.Alert
	err := r.DB.WithContext(ctx).
		Where("source_id = ? AND type = ? AND is_resolved = FALSE", sourceID, typ).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAlert 条件插入：撞上部分唯一索引时不报错、零行生效，
// 返回 ErrAlertExists。读-查-写之间无需再加锁。
func (r *Repo) CreateAlert(ctx context.Context, a *models.Alert) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "source_id"}, {Name: "type"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{gorm.Expr("is_resolved = FALSE")}},
		DoNothing:   true,
	}).Create(a)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlertExists
	}
	return nil
}

// EscalateAlert 只升不降：比较在 SQL 里原子完成，
// 新优先级不比当前更严重时零行生效（幂等空转）。
func (r *Repo) EscalateAlert(ctx context.Context, id, newPriority string, now time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Alert{}).
		Where(fmt.Sprintf(`id = ? AND is_resolved = FALSE AND
			(CASE priority
				WHEN '%s' THEN 0
				WHEN '%s' THEN 1
				WHEN '%s' THEN 2
				ELSE 3
			END) > ?`,
			models.PriorityCritical, models.PriorityHigh, models.PriorityMedium),
			id, models.PriorityRank(newPriority)).
		Updates(map[string]any{"priority": newPriority, "updated_at": now})
	return res.RowsAffected > 0, res.Error
}

// UpsertRepeatOffenderAlert 累犯告警：同一用户只留一条未解决，
// 已存在则覆盖计数并刷新 updated_at；优先级固定 high 不变。
// 返回是否新建。
func (r *Repo) UpsertRepeatOffenderAlert(ctx context.Context, userID string, noShowCount int, now time.Time) (bool, error) {
	refresh := func(a *models.Alert) error {
		data := a.SourceData
		if data == nil {
			data = models.JSONMap{}
		}
		data["noShowCount"] = noShowCount
		return r.DB.WithContext(ctx).Model(&models.Alert{}).
			Where("id = ? AND is_resolved = FALSE", a.ID).
			Updates(map[string]any{"source_data": data, "updated_at": now}).Error
	}

	existing, err := r.FindUnresolvedAlert(ctx, userID, models.AlertRepeatNoShowUser)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, refresh(existing)
	}

	a := &models.Alert{
		ID:         uuid.NewString(),
		Type:       models.AlertRepeatNoShowUser,
		Priority:   models.PriorityHigh,
		SourceID:   userID,
		SourceType: "user",
		SourceData: models.JSONMap{
			"userId":       userID,
			"noShowCount":  noShowCount,
			"windowDays":   30,
			"quickActions": models.RepeatOffenderQuickActions(userID),
		},
	}
	err = r.CreateAlert(ctx, a)
	if errors.Is(err, ErrAlertExists) {
		// 并发竞态：别的扫描刚建完，转成覆盖
		existing, ferr := r.FindUnresolvedAlert(ctx, userID, models.AlertRepeatNoShowUser)
		if ferr != nil || existing == nil {
			return false, ferr
		}
		return false, refresh(existing)
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ResolveAlert 终态转换，零行生效说明已被解决过
func (r *Repo) ResolveAlert(ctx context.Context, id, resolvedBy, action string, now time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.Alert{}).
		Where("id = ? AND is_resolved = FALSE", id).
		Updates(map[string]any{
			"is_resolved":     true,
			"resolved_at":     now,
			"resolved_by":     resolvedBy,
			"resolved_action": action,
			"updated_at":      now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var a models.Alert
		if err := r.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
			return err
		}
		return ErrAlertResolved
	}
	return nil
}

type ListAlertsResult struct {
	Alerts []models.Alert `json:"alerts"`
	Total  int64          `json:"total"`
}

func (r *Repo) ListAlerts(ctx context.Context, typ string, includeResolved bool, page, size int) (ListAlertsResult, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}

	tx := r.DB.WithContext(ctx).Model(&models.Alert{})
	if !includeResolved {
		tx = tx.Where("is_resolved = FALSE")
	}
	if typ != "" {
		tx = tx.Where("type = ?", typ)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return ListAlertsResult{}, err
	}

	var alerts []models.Alert
	if err := tx.
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&alerts).Error; err != nil {
		return ListAlertsResult{}, err
	}
	return ListAlertsResult{Alerts: alerts, Total: total}, nil
}

func (r *Repo) CountUnresolvedAlerts(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Alert{}).
		Where("is_resolved = FALSE").
		Count(&n).Error
	return n, err
}
