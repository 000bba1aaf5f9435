package db

import (
	"equiploan/models"
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := Migrate(conn); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return conn
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Equipment{},
		&models.Loan{},
		&models.Reservation{},
		&models.Alert{},
		&models.NoShowEvent{},
		&models.ReliabilityRecord{},
		&models.Report{},
		&models.Notification{},
		&models.ActivityLog{},
	); err != nil {
		return err
	}

	// 同一来源同一类型最多一条未解决告警（去重键的硬约束，
	// 并发扫描 check-then-act 的竞态由它兜底）
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_open_per_source
	  ON %s (source_id, type)
	  WHERE is_resolved = FALSE;
	`, models.AlertTable, models.AlertTable)).Error; err != nil {
		return err
	}

	// 扫描热路径：按状态 + 应还时间
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_status_expected_return
	  ON %s (status, expected_return_at);
	`, models.LoanTable, models.LoanTable)).Error; err != nil {
		return err
	}

	// 滑动窗口计数
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_user_occurred_desc
	  ON %s (user_id, occurred_at DESC);
	`, models.NoShowEventTable, models.NoShowEventTable)).Error; err != nil {
		return err
	}

	return nil
}
