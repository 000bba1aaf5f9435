package db

import (
	"context"
	"time"

	"equiploan/models"

	"gorm.io/gorm"
)

// Reservations

func (r *Repo) CreateReservation(ctx context.Context, res *models.Reservation) error {
	return r.DB.WithContext(ctx).Create(res).Error
}

func (r *Repo) FindReservationByID(ctx context.Context, id string) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.DB.WithContext(ctx).First(&res, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

// 爽约扫描与过期清理共用的输入集
func (r *Repo) ListReadyReservations(ctx context.Context) ([]models.Reservation, error) {
	var rs []models.Reservation
	err := r.DB.WithContext(ctx).
		Where("status = ?", models.ReservationReady).
		Order("start_at ASC").
		Find(&rs).Error
	return rs, err
}

// ClaimReservationNoShow ready → no_show。
// 以 status = 'ready' 为条件更新：爽约扫描和过期清理谁先改到谁赢，
// 另一方自然空转，不会重复处理同一条记录。
func (r *Repo) ClaimReservationNoShow(ctx context.Context, id string, now time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, models.ReservationReady).
		Updates(map[string]any{
			"status":     models.ReservationNoShow,
			"is_no_show": true,
			"updated_at": now,
		})
	return res.RowsAffected > 0, res.Error
}

// ClaimReservationExpired ready → expired，并释放设备。
// 过期路径不记爽约，只回收占用。
func (r *Repo) ClaimReservationExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	claimed := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Reservation{}).
			Where("id = ? AND status = ?", id, models.ReservationReady).
			Updates(map[string]any{"status": models.ReservationExpired, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		claimed = true
		var rv models.Reservation
		if err := tx.First(&rv, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&models.Equipment{}).
			Where("id = ?", rv.EquipmentID).
			Update("in_use", false).Error
	})
	return claimed, err
}

// 评分用的全量历史计数
type ReservationStats struct {
	TotalReservations int
	NoShows           int
}

func (r *Repo) ReservationStatsForUser(ctx context.Context, userID string) (ReservationStats, error) {
	var s ReservationStats
	err := r.DB.WithContext(ctx).Model(&models.Reservation{}).
		Select(`COUNT(*) AS total_reservations,
			COALESCE(SUM(CASE WHEN is_no_show THEN 1 ELSE 0 END), 0) AS no_shows`).
		Where("user_id = ?", userID).
		Scan(&s).Error
	return s, err
}
