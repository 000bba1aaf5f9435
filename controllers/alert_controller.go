// controllers/alert_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"equiploan/app"
	"equiploan/db"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AlertController struct{ *Srv }

func NewAlertController(s *Srv) *AlertController { return &AlertController{Srv: s} }

// 列表（默认只看未解决；?type=&resolved=1&page=&size=）
func (ac *AlertController) ListAlerts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	includeResolved := c.Query("resolved") == "1"

	out, err := ac.Repo.ListAlerts(c.Request.Context(), c.Query("type"), includeResolved, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// 解决告警：终态转换，重复解决返回 409
func (ac *AlertController) ResolveAlert(c *gin.Context) {
	id := c.Param("id")
	var in struct {
		ResolvedBy string `json:"resolvedBy" binding:"required"`
		Action     string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	err := ac.Repo.ResolveAlert(c.Request.Context(), id, in.ResolvedBy, in.Action, time.Now().UTC())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, app.H{"ok": true})
	case errors.Is(err, db.ErrAlertResolved):
		c.JSON(http.StatusConflict, app.H{"error": "alert already resolved"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": "alert not found"})
	default:
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
	}
}
