package app

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"equiploan/db"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Config Config

	loc *time.Location
}

// Config 从环境变量读取
type Config struct {
	RedisAddr             string
	RedisPwd              string
	WebOrigin             string
	Timezone              string
	UtilizationWindowDays int
	JobLockTTL            time.Duration
}

func MustNew() *App {
	cfg := loadConfig()

	dbConn := db.ConnectDB()

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	// --- 固定时区：所有切日/切周计算用它 ---
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("timezone %q: %v", cfg.Timezone, err)
	}

	// --- Gin ---
	r := gin.Default()
	useCORS(r, cfg.WebOrigin)

	return &App{Router: r, DB: dbConn, RDB: rdb, Config: cfg, loc: loc}
}

func (a *App) Location() *time.Location { return a.loc }

func (a *App) Close() { _ = a.RDB.Close() }

func loadConfig() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}

	windowDays := 7
	if v := strings.TrimSpace(os.Getenv("UTILIZATION_WINDOW_DAYS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			windowDays = n
		}
	}

	lockTTL := 30 * time.Minute
	if v := strings.TrimSpace(os.Getenv("JOB_LOCK_TTL_SECONDS")); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			lockTTL = d
		}
	}

	return Config{
		RedisAddr:             get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:              os.Getenv("REDIS_PASSWORD"),
		WebOrigin:             get("WEB_ORIGIN", "http://localhost:3000"),
		Timezone:              get("TIMEZONE", "UTC"),
		UtilizationWindowDays: windowDays,
		JobLockTTL:            lockTTL,
	}
}
