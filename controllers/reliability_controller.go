// controllers/reliability_controller.go
package controllers

import (
	"errors"
	"net/http"

	"equiploan/app"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ReliabilityController struct{ *Srv }

func NewReliabilityController(s *Srv) *ReliabilityController { return &ReliabilityController{Srv: s} }

// ListFlagged 低分（需人工跟进）用户清单，按分数从低到高
func (rc *ReliabilityController) ListFlagged(c *gin.Context) {
	recs, err := rc.Repo.ListFlaggedReliabilityRecords(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"records": recs})
}

// GetUserRecord 单个用户最近一次评分
func (rc *ReliabilityController) GetUserRecord(c *gin.Context) {
	rec, err := rc.Repo.FindReliabilityRecord(c.Request.Context(), c.Param("userId"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, rec)
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": "no score for user"})
	default:
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
	}
}
