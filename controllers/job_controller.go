// controllers/job_controller.go
package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"equiploan/app"
	"equiploan/jobs"

	"github.com/gin-gonic/gin"
)

type JobController struct{ *Srv }

func NewJobController(s *Srv) *JobController { return &JobController{Srv: s} }

// 各任务最近一次运行的结果快照
func (jc *JobController) Status(c *gin.Context) {
	out := app.H{}
	for _, name := range jc.Jobs.JobNames() {
		raw, err := jc.State.LastResult(c.Request.Context(), name)
		if err != nil {
			out[name] = app.H{"error": err.Error()}
			continue
		}
		if raw == nil {
			out[name] = nil
			continue
		}
		out[name] = json.RawMessage(raw)
	}
	c.JSON(http.StatusOK, app.H{"jobs": out})
}

// 手动触发一轮，同步等结果返回
func (jc *JobController) Run(c *gin.Context) {
	name := c.Param("name")
	result, err := jc.Jobs.RunByName(c.Request.Context(), name)
	switch {
	case errors.Is(err, jobs.ErrUnknownJob):
		c.JSON(http.StatusNotFound, app.H{"error": "unknown job"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error(), "result": result})
	case result == nil:
		// 撞锁跳过
		c.JSON(http.StatusConflict, app.H{"error": "job already running"})
	default:
		c.JSON(http.StatusOK, app.H{"result": result})
	}
}
