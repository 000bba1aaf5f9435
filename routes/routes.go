package routes

import (
	"equiploan/app"
	"equiploan/controllers"
	"equiploan/jobs"
	"equiploan/jobstate"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App, runner *jobs.Runner, state *jobstate.Store) {
	s := controllers.GetSrv(a, runner, state)
	alertCtl := controllers.NewAlertController(s)
	reportCtl := controllers.NewReportController(s)
	jobCtl := controllers.NewJobController(s)
	loanCtl := controllers.NewLoanController(s)
	userCtl := controllers.NewUserController(s)
	relCtl := controllers.NewReliabilityController(s)

	// ------------------------------
	// 告警台账（外部 UI 消费/解决）
	// ------------------------------
	alerts := r.Group("/api/alerts")
	{
		alerts.GET("", alertCtl.ListAlerts) // ?type=&resolved=1&page=&size=
		alerts.POST("/:id/resolve", alertCtl.ResolveAlert)
	}

	// ------------------------------
	// 快捷操作落点：登记归还 / 联系人查询
	// ------------------------------
	loans := r.Group("/api/loans")
	{
		loans.POST("/:id/return", loanCtl.ReturnLoan)
	}
	users := r.Group("/api/users")
	{
		users.GET("", userCtl.SearchUsers) // ?q=&page=&size=
		users.GET("/:id", userCtl.GetUser)
	}

	// ------------------------------
	// 评分结果
	// ------------------------------
	reliability := r.Group("/api/reliability")
	{
		reliability.GET("/flagged", relCtl.ListFlagged)
		reliability.GET("/:userId", relCtl.GetUserRecord)
	}

	// ------------------------------
	// 报表
	// ------------------------------
	reports := r.Group("/api/reports")
	{
		reports.GET("", reportCtl.ListReports)   // ?type=&limit=
		reports.GET("/one", reportCtl.GetReport) // ?type=&period=
	}

	// ------------------------------
	// 任务运维：状态回读 + 手动触发
	// ------------------------------
	jobsGrp := r.Group("/api/jobs")
	{
		jobsGrp.GET("/status", jobCtl.Status)
		jobsGrp.POST("/:name/run", jobCtl.Run)
	}
}
