package db

import (
	"context"

	"equiploan/models"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// ReliabilityRecords：每周全量覆盖，按 user_id upsert

func (r *Repo) UpsertReliabilityRecord(ctx context.Context, rec *models.ReliabilityRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_loans", "on_time_returns", "late_returns", "on_time_return_rate",
			"total_reservations", "no_shows", "no_show_rate",
			"reliability_score", "classification", "is_flagged",
			"computed_at", "updated_at",
		}),
	}).Create(rec).Error
}

func (r *Repo) FindReliabilityRecord(ctx context.Context, userID string) (*models.ReliabilityRecord, error) {
	var rec models.ReliabilityRecord
	if err := r.DB.WithContext(ctx).First(&rec, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Repo) ListFlaggedReliabilityRecords(ctx context.Context) ([]models.ReliabilityRecord, error) {
	var recs []models.ReliabilityRecord
	err := r.DB.WithContext(ctx).
		Where("is_flagged = TRUE").
		Order("reliability_score ASC").
		Find(&recs).Error
	return recs, err
}
