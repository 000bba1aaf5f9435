// controllers/report_controller.go
package controllers

import (
	"net/http"
	"strconv"

	"equiploan/app"

	"github.com/gin-gonic/gin"
)

type ReportController struct{ *Srv }

func NewReportController(s *Srv) *ReportController { return &ReportController{Srv: s} }

// 按 (type, period) 精确取一张报表
func (rc *ReportController) GetReport(c *gin.Context) {
	typ := c.Query("type")
	period := c.Query("period")
	if typ == "" || period == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "type and period are required"})
		return
	}
	rep, err := rc.Repo.FindReport(c.Request.Context(), typ, period)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	if rep == nil {
		c.JSON(http.StatusNotFound, app.H{"error": "report not found"})
		return
	}
	c.JSON(http.StatusOK, rep)
}

// 最近若干期（?type=&limit=）
func (rc *ReportController) ListReports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	reps, err := rc.Repo.ListReports(c.Request.Context(), c.Query("type"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"reports": reps})
}
