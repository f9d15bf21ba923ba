package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/anupp-11/smartiplace-logs/database"
	"github.com/anupp-11/smartiplace-logs/models"
)

type DashboardHandler struct{}

func NewDashboardHandler() *DashboardHandler { return &DashboardHandler{} }

// GET /admin/dashboard/stats
// Pending is derived: everyone not yet marked present or absent today.
func (h *DashboardHandler) Stats(c echo.Context) error {
	today := todayDate()

	var totalPeople, present, absent int64
	if err := database.DB.Model(&models.Person{}).Count(&totalPeople).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	if err := database.DB.Model(&models.AttendanceLog{}).
		Where("attendance_date = ? AND status = ?", today, models.StatusPresent).
		Count(&present).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	if err := database.DB.Model(&models.AttendanceLog{}).
		Where("attendance_date = ? AND status = ?", today, models.StatusAbsent).
		Count(&absent).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"total_people":  totalPeople,
		"today_present": present,
		"today_absent":  absent,
		"today_pending": totalPeople - present - absent,
	})
}

// GET /admin/dashboard/today-punches
// Today's punched-in rows with their locations, latest punch first.
func (h *DashboardHandler) TodayPunches(c echo.Context) error {
	type punchRow struct {
		ID           uuid.UUID  `json:"id"`
		PersonID     uuid.UUID  `json:"person_id"`
		FullName     string     `json:"full_name"`
		PersonRole   string     `json:"person_role"`
		Status       *string    `json:"status"`
		PunchInTime  *time.Time `json:"punch_in_time"`
		PunchOutTime *time.Time `json:"punch_out_time"`
		PunchInLat   *float64   `json:"punch_in_latitude"`
		PunchInLng   *float64   `json:"punch_in_longitude"`
		PunchInAddr  string     `json:"punch_in_address"`
		PunchOutLat  *float64   `json:"punch_out_latitude"`
		PunchOutLng  *float64   `json:"punch_out_longitude"`
		PunchOutAddr string     `json:"punch_out_address"`
	}

	var rows []punchRow
	if err := database.DB.Table("attendance_logs AS a").
		Joins("JOIN people p ON p.id = a.person_id").
		Select(`a.id, a.person_id, p.full_name, COALESCE(p.role, '') AS person_role,
			a.status, a.punch_in_time, a.punch_out_time,
			a.punch_in_lat, a.punch_in_lng, a.punch_in_addr,
			a.punch_out_lat, a.punch_out_lng, a.punch_out_addr`).
		Where("a.attendance_date = ? AND a.punch_in_time IS NOT NULL", todayDate()).
		Order("a.punch_in_time DESC").
		Scan(&rows).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}

	type punchRowOut struct {
		punchRow
		InMapURL  string `json:"in_map_url"`
		OutMapURL string `json:"out_map_url"`
	}
	out := make([]punchRowOut, 0, len(rows))
	for _, r := range rows {
		out = append(out, punchRowOut{
			punchRow:  r,
			InMapURL:  mapsURL(r.PunchInLat, r.PunchInLng),
			OutMapURL: mapsURL(r.PunchOutLat, r.PunchOutLng),
		})
	}
	return c.JSON(http.StatusOK, out)
}
