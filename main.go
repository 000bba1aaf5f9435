package main

import (
	"equiploan/app"
	"equiploan/compliance"
	"equiploan/config"
	"equiploan/db"
	"equiploan/jobs"
	"equiploan/jobstate"
	"equiploan/routes"
	"log"
	"os"
	"time"
)

func main() {
	config.LoadEnv()

	application := app.MustNew()
	defer application.Close()

	r := application.Router

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	repo := db.NewRepo(application.DB)
	loc := application.Location()

	scanner := compliance.NewScanner(repo, loc)
	scoring := compliance.NewScoringJob(repo, loc,
		time.Duration(application.Config.UtilizationWindowDays)*24*time.Hour)
	state := jobstate.NewStore(application.RDB, application.Config.JobLockTTL)

	runner, err := jobs.New(scanner, scoring, state, loc)
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	runner.Start()
	defer runner.Stop()

	routes.RegisterRoutes(r, application, runner, state)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	log.Printf("listening on :%s", port)
	_ = r.Run(":" + port)
}
