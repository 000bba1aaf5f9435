package db

import (
	"context"
	"errors"

	"equiploan/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reports：以 (type, period) 为键 upsert，同一周期重复生成幂等覆盖

func (r *Repo) UpsertReport(ctx context.Context, rep *models.Report) error {
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "type"}, {Name: "period"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "generated_at", "updated_at"}),
	}).Create(rep).Error
}

func (r *Repo) FindReport(ctx context.Context, typ, period string) (*models.Report, error) {
	var rep models.Report
	err := r.DB.WithContext(ctx).
		Where("type = ? AND period = ?", typ, period).
		First(&rep).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *Repo) ListReports(ctx context.Context, typ string, limit int) ([]models.Report, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	tx := r.DB.WithContext(ctx).Model(&models.Report{})
	if typ != "" {
		tx = tx.Where("type = ?", typ)
	}
	var reps []models.Report
	err := tx.Order("period DESC").Limit(limit).Find(&reps).Error
	return reps, err
}
