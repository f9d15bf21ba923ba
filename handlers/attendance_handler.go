package handlers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anupp-11/smartiplace-logs/database"
	"github.com/anupp-11/smartiplace-logs/helper"
	"github.com/anupp-11/smartiplace-logs/models"
)

type AttendanceHandler struct {
	// geofence; punches outside the radius are rejected when RadiusM > 0
	OfficeLat float64
	OfficeLng float64
	RadiusM   float64
}

func NewAttendanceHandler(officeLat, officeLng, radiusM float64) *AttendanceHandler {
	return &AttendanceHandler{OfficeLat: officeLat, OfficeLng: officeLng, RadiusM: radiusM}
}

type punchReq struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
}

func (h *AttendanceHandler) outOfRange(req *punchReq) bool {
	if h.RadiusM <= 0 || req.Latitude == nil || req.Longitude == nil {
		return false
	}
	return helper.DistanceMeters(h.OfficeLat, h.OfficeLng, *req.Latitude, *req.Longitude) > h.RadiusM
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// POST /punch/in
// Creates or completes today's row. A system-marked absent row without a
// punch-in is overwritten back to present: a late arrival corrects the
// auto-absent mark.
func (h *AttendanceHandler) PunchIn(c echo.Context) error {
	uid, err := currentUserID(c)
	if err != nil {
		return err
	}
	p, err := resolvePerson(uid)
	if errors.Is(err, errNotLinked) {
		return notLinkedResponse(c)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}

	var req punchReq
	_ = c.Bind(&req) // location payload is optional

	if h.outOfRange(&req) {
		return c.JSON(http.StatusForbidden, map[string]any{"error": "OUT_OF_RANGE"})
	}

	today := todayDate()
	now := time.Now()
	status := models.StatusPresent

	var existing models.AttendanceLog
	err = database.DB.Where("person_id = ? AND attendance_date = ?", p.ID, today).First(&existing).Error
	switch {
	case err == nil && existing.PunchInTime != nil:
		return c.JSON(http.StatusConflict, map[string]any{"error": "ALREADY_PUNCHED_IN"})

	case err == nil:
		updates := map[string]any{
			"punch_in_time": now,
			"status":        status,
			"punch_in_lat":  req.Latitude,
			"punch_in_lng":  req.Longitude,
			"punch_in_addr": strings.TrimSpace(req.Address),
		}
		if err := database.DB.Model(&existing).Updates(updates).Error; err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_SAVE_ERROR"})
		}

	case errors.Is(err, gorm.ErrRecordNotFound):
		rec := models.AttendanceLog{
			PersonID:       p.ID,
			AttendanceDate: today,
			Status:         &status,
			PunchInTime:    &now,
			PunchInLat:     req.Latitude,
			PunchInLng:     req.Longitude,
			PunchInAddr:    strings.TrimSpace(req.Address),
			RecordedBy:     &uid,
		}
		if err := database.DB.Create(&rec).Error; err != nil {
			// a concurrent punch-in won the insert race
			if isUniqueViolation(err) {
				return c.JSON(http.StatusConflict, map[string]any{"error": "ALREADY_PUNCHED_IN"})
			}
			return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_SAVE_ERROR"})
		}

	default:
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}

	return c.JSON(http.StatusOK, map[string]any{"ok": true, "punch_in_time": now})
}

// POST /punch/out
func (h *AttendanceHandler) PunchOut(c echo.Context) error {
	uid, err := currentUserID(c)
	if err != nil {
		return err
	}
	p, err := resolvePerson(uid)
	if errors.Is(err, errNotLinked) {
		return notLinkedResponse(c)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}

	var req punchReq
	_ = c.Bind(&req)

	if h.outOfRange(&req) {
		return c.JSON(http.StatusForbidden, map[string]any{"error": "OUT_OF_RANGE"})
	}

	today := todayDate()
	now := time.Now()

	var existing models.AttendanceLog
	err = database.DB.Where("person_id = ? AND attendance_date = ?", p.ID, today).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusConflict, map[string]any{"error": "NO_PUNCH_IN_YET"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	if existing.PunchInTime == nil {
		return c.JSON(http.StatusConflict, map[string]any{"error": "NO_PUNCH_IN_YET"})
	}
	if existing.PunchOutTime != nil {
		return c.JSON(http.StatusConflict, map[string]any{"error": "ALREADY_PUNCHED_OUT"})
	}

	updates := map[string]any{
		"punch_out_time": now,
		"punch_out_lat":  req.Latitude,
		"punch_out_lng":  req.Longitude,
		"punch_out_addr": strings.TrimSpace(req.Address),
	}
	if err := database.DB.Model(&existing).Updates(updates).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_SAVE_ERROR"})
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "punch_out_time": now})
}

// GET /punch/today
// "No row yet" is a normal answer, never an error.
func (h *AttendanceHandler) Today(c echo.Context) error {
	uid, err := currentUserID(c)
	if err != nil {
		return err
	}
	p, err := resolvePerson(uid)
	if errors.Is(err, errNotLinked) {
		return notLinkedResponse(c)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}

	var row models.AttendanceLog
	err = database.DB.Where("person_id = ? AND attendance_date = ?", p.ID, todayDate()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusOK, map[string]any{
			"has_punched_in":  false,
			"has_punched_out": false,
			"punch_in_time":   nil,
			"punch_out_time":  nil,
			"status":          nil,
			"attendance_id":   nil,
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"has_punched_in":  row.PunchInTime != nil,
		"has_punched_out": row.PunchOutTime != nil,
		"punch_in_time":   row.PunchInTime,
		"punch_out_time":  row.PunchOutTime,
		"status":          row.Status,
		"attendance_id":   row.ID,
	})
}

// GET /attendance/my-logs?limit=
func (h *AttendanceHandler) MyLogs(c echo.Context) error {
	uid, err := currentUserID(c)
	if err != nil {
		return err
	}
	p, err := resolvePerson(uid)
	if errors.Is(err, errNotLinked) {
		return notLinkedResponse(c)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}

	limit := atoiOr(c.QueryParam("limit"), 30)
	if limit < 1 || limit > 365 {
		limit = 30
	}

	var logs []models.AttendanceLog
	if err := database.DB.
		Where("person_id = ?", p.ID).
		Order("attendance_date DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	return c.JSON(http.StatusOK, logs)
}

// GET /admin/attendance?date=YYYY-MM-DD
// The bulk-entry sheet: every person merged with their row for the date.
func (h *AttendanceHandler) Sheet(c echo.Context) error {
	date := strings.TrimSpace(c.QueryParam("date"))
	if date == "" {
		date = todayDate()
	}
	if _, err := parseDate(date); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_DATE"})
	}

	var people []models.Person
	if err := database.DB.Order("full_name ASC").Find(&people).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	var rows []models.AttendanceLog
	if err := database.DB.Where("attendance_date = ?", date).Find(&rows).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}

	byPerson := make(map[uuid.UUID]models.AttendanceLog, len(rows))
	for _, r := range rows {
		byPerson[r.PersonID] = r
	}

	type sheetRow struct {
		PersonID   uuid.UUID  `json:"person_id"`
		FullName   string     `json:"full_name"`
		Role       string     `json:"role"`
		Status     *string    `json:"status"`
		Notes      *string    `json:"notes"`
		ExistingID *uuid.UUID `json:"existing_id"`
	}
	out := make([]sheetRow, 0, len(people))
	for _, person := range people {
		row := sheetRow{PersonID: person.ID, FullName: person.FullName, Role: person.Role}
		if r, ok := byPerson[person.ID]; ok {
			row.Status = r.Status
			row.Notes = &r.Notes
			id := r.ID
			row.ExistingID = &id
		}
		out = append(out, row)
	}
	return c.JSON(http.StatusOK, out)
}

type bulkRecord struct {
	PersonID uuid.UUID `json:"person_id"`
	Status   string    `json:"status"`
	Notes    string    `json:"notes"`
}

type bulkUpsertReq struct {
	Date    string       `json:"date"`
	Records []bulkRecord `json:"records"`
}

// POST /admin/attendance
// Batch upsert keyed on (person_id, attendance_date).
func (h *AttendanceHandler) BulkUpsert(c echo.Context) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req bulkUpsertReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	date, err := parseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_DATE"})
	}
	if len(req.Records) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "NO_RECORDS_TO_SAVE"})
	}

	logs := make([]models.AttendanceLog, 0, len(req.Records))
	for _, r := range req.Records {
		if r.PersonID == uuid.Nil || !models.ValidStatus(r.Status) {
			return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_RECORD"})
		}
		status := r.Status
		logs = append(logs, models.AttendanceLog{
			PersonID:       r.PersonID,
			AttendanceDate: date,
			Status:         &status,
			Notes:          strings.TrimSpace(r.Notes),
			RecordedBy:     &adminID,
		})
	}

	if err := database.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "person_id"}, {Name: "attendance_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "notes", "recorded_by", "updated_at"}),
	}).Create(&logs).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_SAVE_ERROR"})
	}
	return c.JSON(http.StatusOK, map[string]any{"saved": len(logs)})
}

// logRow is an attendance row joined with its person for listing/export.
type logRow struct {
	ID             uuid.UUID  `json:"id"`
	PersonID       uuid.UUID  `json:"person_id"`
	AttendanceDate string     `json:"attendance_date"`
	Status         *string    `json:"status"`
	Notes          string     `json:"notes"`
	PunchInTime    *time.Time `json:"punch_in_time"`
	PunchOutTime   *time.Time `json:"punch_out_time"`
	PunchInLat     *float64   `json:"punch_in_latitude"`
	PunchInLng     *float64   `json:"punch_in_longitude"`
	PunchInAddr    string     `json:"punch_in_address"`
	PunchOutLat    *float64   `json:"punch_out_latitude"`
	PunchOutLng    *float64   `json:"punch_out_longitude"`
	PunchOutAddr   string     `json:"punch_out_address"`
	RecordedBy     *uuid.UUID `json:"recorded_by"`
	CreatedAt      time.Time  `json:"created_at"`
	FullName       string     `json:"full_name"`
	PersonRole     string     `json:"person_role"`
}

const logRowSelect = `a.id, a.person_id, a.attendance_date, a.status, a.notes,
	a.punch_in_time, a.punch_out_time,
	a.punch_in_lat, a.punch_in_lng, a.punch_in_addr,
	a.punch_out_lat, a.punch_out_lng, a.punch_out_addr,
	a.recorded_by, a.created_at,
	p.full_name, COALESCE(p.role, '') AS person_role`

type logFilters struct {
	DateFrom string
	DateTo   string
	PersonID string
	Status   string
}

func logFiltersFrom(c echo.Context) logFilters {
	return logFilters{
		DateFrom: strings.TrimSpace(c.QueryParam("date_from")),
		DateTo:   strings.TrimSpace(c.QueryParam("date_to")),
		PersonID: strings.TrimSpace(c.QueryParam("person_id")),
		Status:   strings.TrimSpace(c.QueryParam("status")),
	}
}

func applyLogFilters(tx *gorm.DB, f logFilters) *gorm.DB {
	if f.DateFrom != "" {
		tx = tx.Where("a.attendance_date >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		tx = tx.Where("a.attendance_date <= ?", f.DateTo)
	}
	if f.PersonID != "" {
		tx = tx.Where("a.person_id = ?", f.PersonID)
	}
	if f.Status != "" {
		tx = tx.Where("a.status = ?", f.Status)
	}
	return tx
}

func filteredLogsQuery(f logFilters) *gorm.DB {
	tx := database.DB.Table("attendance_logs AS a").
		Joins("JOIN people p ON p.id = a.person_id").
		Select(logRowSelect).
		Order("a.attendance_date DESC, a.created_at DESC")
	return applyLogFilters(tx, f)
}

// GET /admin/logs?date_from=&date_to=&person_id=&status=&page=&limit=
func (h *AttendanceHandler) ListLogs(c echo.Context) error {
	f := logFiltersFrom(c)

	page := atoiOr(c.QueryParam("page"), 1)
	limit := atoiOr(c.QueryParam("limit"), 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var count int64
	countTx := applyLogFilters(database.DB.Table("attendance_logs AS a"), f)
	if err := countTx.Count(&count).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}

	var rows []logRow
	offset := (page - 1) * limit
	if err := filteredLogsQuery(f).Offset(offset).Limit(limit).Scan(&rows).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	if rows == nil {
		rows = []logRow{}
	}

	totalPages := int(count) / limit
	if int(count)%limit != 0 {
		totalPages++
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data":        rows,
		"count":       count,
		"page":        page,
		"limit":       limit,
		"total_pages": totalPages,
	})
}

// csvRecords renders joined log rows into the fixed export column order.
func csvRecords(rows []logRow) [][]string {
	out := [][]string{{
		"Date", "Person", "Role", "Status",
		"Punch In", "In Location", "Punch Out", "Out Location",
		"Notes", "Recorded At",
	}}
	for _, r := range rows {
		status := ""
		if r.Status != nil {
			status = *r.Status
		}
		punchIn, punchOut := "", ""
		if r.PunchInTime != nil {
			punchIn = r.PunchInTime.Format("15:04:05")
		}
		if r.PunchOutTime != nil {
			punchOut = r.PunchOutTime.Format("15:04:05")
		}
		out = append(out, []string{
			r.AttendanceDate,
			r.FullName,
			r.PersonRole,
			status,
			punchIn,
			mapsURL(r.PunchInLat, r.PunchInLng),
			punchOut,
			mapsURL(r.PunchOutLat, r.PunchOutLng),
			r.Notes,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return out
}

// GET /admin/logs/export
// Unpaginated filtered logs as a CSV attachment.
func (h *AttendanceHandler) ExportCSV(c echo.Context) error {
	var rows []logRow
	if err := filteredLogsQuery(logFiltersFrom(c)).Scan(&rows).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(csvRecords(rows)); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "CSV_ERROR"})
	}

	filename := "attendance-logs-" + todayDate() + ".csv"
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
