package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/anupp-11/smartiplace-logs/config"
	"github.com/anupp-11/smartiplace-logs/handlers"
	"github.com/anupp-11/smartiplace-logs/middlewares"
)

// Register wires all HTTP routes.
func Register(e *echo.Echo, cfg *config.Config) {
	// ===== Handlers (shared singletons) =====
	auth := handlers.NewAuthHandler()
	people := handlers.NewPersonHandler()
	att := handlers.NewAttendanceHandler(cfg.OfficeLat, cfg.OfficeLng, cfg.OfficeRadiusM)
	lv := handlers.NewLeaveHandler()
	dash := handlers.NewDashboardHandler()
	cron := handlers.NewCronHandler(cfg.CronSecret, cfg.AutoAbsentCutoffHour)

	// ===== Public =====
	e.GET("/health", handlers.Health)
	e.POST("/auth/signup", auth.SignUp)
	e.POST("/auth/login", auth.Login)
	e.GET("/cron/auto-absent", cron.AutoAbsent)

	// ===== Authenticated (any role) =====
	authMW := middlewares.RequireAuth(cfg.JWTSecret)
	me := e.Group("", authMW)

	me.POST("/auth/logout", auth.Logout)
	me.PUT("/auth/password", auth.ChangePassword)
	me.GET("/me", auth.Me)

	me.POST("/punch/in", att.PunchIn)
	me.POST("/punch/out", att.PunchOut)
	me.GET("/punch/today", att.Today)
	me.GET("/attendance/my-logs", att.MyLogs)

	me.POST("/leave", lv.Create)
	me.GET("/leave/mine", lv.Mine)
	me.DELETE("/leave/:id", lv.Cancel)

	// ===== Admin =====
	admin := e.Group("/admin", authMW, middlewares.RequireAdmin())

	admin.GET("/people", people.List)
	admin.POST("/people", people.Create)
	admin.GET("/people/:id", people.Get)
	admin.PUT("/people/:id", people.Update)
	admin.DELETE("/people/:id", people.Delete)
	admin.GET("/people/:id/logs", people.Logs)
	admin.GET("/people/:id/leave-stats", people.LeaveStats)
	admin.PUT("/user-roles", people.SetUserRole)

	admin.GET("/attendance", att.Sheet)
	admin.POST("/attendance", att.BulkUpsert)
	admin.GET("/logs", att.ListLogs)
	admin.GET("/logs/export", att.ExportCSV)

	admin.GET("/dashboard/stats", dash.Stats)
	admin.GET("/dashboard/today-punches", dash.TodayPunches)

	admin.GET("/leave", lv.ListAll)
	admin.GET("/leave/pending-count", lv.PendingCount)
	admin.POST("/leave/:id/review", lv.Review)
}
