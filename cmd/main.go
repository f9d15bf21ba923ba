package main

import (
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"

	"github.com/anupp-11/smartiplace-logs/config"
	"github.com/anupp-11/smartiplace-logs/database"
	"github.com/anupp-11/smartiplace-logs/handlers"
	"github.com/anupp-11/smartiplace-logs/routes"
)

type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i any) error {
	if err := rv.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, map[string]any{
			"error":  "VALIDATION_ERROR",
			"detail": err.Error(),
		})
	}
	return nil
}

func main() {
	cfg := config.Load()

	// fail fast when the database is not up yet
	database.Connect(cfg)

	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{v: validator.New()}
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	routes.Register(e, cfg)

	// Optional in-process schedule for the auto-absent pass. The HTTP trigger
	// stays available either way for external schedulers.
	if cfg.CronEnabled {
		cr := cron.New()
		if _, err := cr.AddFunc("0 * * * *", func() {
			marked, names, err := handlers.RunAutoAbsent(time.Now(), cfg.AutoAbsentCutoffHour)
			if err != nil {
				log.Printf("[cron] auto-absent failed: %v", err)
				return
			}
			if marked > 0 {
				log.Printf("[cron] auto-absent marked %d: %v", marked, names)
			}
		}); err != nil {
			log.Fatalf("cron schedule failed: %v", err)
		}
		cr.Start()
	}

	addr := ":" + cfg.AppPort
	log.Printf("server listening at %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
