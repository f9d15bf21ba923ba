package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm/clause"

	"github.com/anupp-11/smartiplace-logs/database"
	"github.com/anupp-11/smartiplace-logs/models"
)

const autoAbsentNote = "Auto-marked absent - no punch in before 1 PM"

type CronHandler struct {
	Secret     string // bearer token; empty disables the check
	CutoffHour int    // local hour after which missing punch-ins become absent
}

func NewCronHandler(secret string, cutoffHour int) *CronHandler {
	return &CronHandler{Secret: secret, CutoffHour: cutoffHour}
}

// RunAutoAbsent marks every linked person without a punch-in or status for
// now's date as absent. Before the cutoff hour it does nothing. Inserts use
// ON CONFLICT DO NOTHING, so a row written concurrently (a punch-in racing
// the job) is never overwritten, and re-running is a no-op.
func RunAutoAbsent(now time.Time, cutoffHour int) (int, []string, error) {
	if now.Hour() < cutoffHour {
		return 0, nil, nil
	}
	today := now.Format(dateLayout)

	var people []models.Person
	if err := database.DB.Where("user_id IS NOT NULL").Find(&people).Error; err != nil {
		return 0, nil, err
	}
	if len(people) == 0 {
		return 0, nil, nil
	}

	var existing []models.AttendanceLog
	if err := database.DB.Where("attendance_date = ?", today).Find(&existing).Error; err != nil {
		return 0, nil, err
	}
	byPerson := make(map[uuid.UUID]models.AttendanceLog, len(existing))
	for _, a := range existing {
		byPerson[a.PersonID] = a
	}

	status := models.StatusAbsent
	var rows []models.AttendanceLog
	var names []string
	for _, p := range people {
		// skip anyone who already punched in or carries any status,
		// including a prior manual absence or leave
		if a, ok := byPerson[p.ID]; ok && (a.PunchInTime != nil || a.Status != nil) {
			continue
		}
		st := status
		rows = append(rows, models.AttendanceLog{
			PersonID:       p.ID,
			AttendanceDate: today,
			Status:         &st,
			Notes:          autoAbsentNote,
			RecordedBy:     nil, // system-generated
		})
		names = append(names, p.FullName)
	}
	if len(rows) == 0 {
		return 0, nil, nil
	}

	if err := database.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return 0, nil, err
	}
	return len(rows), names, nil
}

// GET /cron/auto-absent
// Trigger for an external scheduler; also reused by the in-process cron.
func (h *CronHandler) AutoAbsent(c echo.Context) error {
	if h.Secret != "" {
		if c.Request().Header.Get("Authorization") != "Bearer "+h.Secret {
			return c.JSON(http.StatusUnauthorized, map[string]any{"error": "UNAUTHORIZED"})
		}
	}

	now := time.Now()
	if now.Hour() < h.CutoffHour {
		return c.JSON(http.StatusOK, map[string]any{
			"marked_absent": 0,
			"message":       "before cutoff, no action needed",
		})
	}

	marked, names, err := RunAutoAbsent(now, h.CutoffHour)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"marked_absent": marked,
		"members":       names,
		"executed_at":   now,
	})
}
