// controllers/loan_controller.go
package controllers

import (
	"errors"
	"net/http"
	"time"

	"equiploan/app"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LoanController struct{ *Srv }

func NewLoanController(s *Srv) *LoanController { return &LoanController{Srv: s} }

// ReturnLoan 逾期告警 mark_returned 快捷操作的落点：
// 登记归还并释放设备，重复提交幂等
func (lc *LoanController) ReturnLoan(c *gin.Context) {
	id := c.Param("id")
	var in struct {
		ReturnedBy string `json:"returnedBy" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	loan, err := lc.Repo.ReturnLoan(c.Request.Context(), id, in.ReturnedBy, time.Now().UTC())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, loan)
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": "loan not found"})
	default:
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
	}
}
