package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anupp-11/smartiplace-logs/database"
	"github.com/anupp-11/smartiplace-logs/models"
)

type LeaveHandler struct{}

func NewLeaveHandler() *LeaveHandler { return &LeaveHandler{} }

type createLeaveReq struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	LeaveType string `json:"leave_type"`
	Reason    string `json:"reason"`
}

// leaveRow is a request joined with its person for listing.
type leaveRow struct {
	ID          uuid.UUID  `json:"id"`
	PersonID    uuid.UUID  `json:"person_id"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	LeaveType   string     `json:"leave_type"`
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	ReviewedBy  *uuid.UUID `json:"reviewed_by"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	ReviewNotes string     `json:"review_notes"`
	CreatedAt   time.Time  `json:"created_at"`
	FullName    string     `json:"full_name"`
	PersonRole  string     `json:"person_role"`
}

const leaveRowSelect = `l.id, l.person_id, l.start_date, l.end_date, l.leave_type,
	l.reason, l.status, l.reviewed_by, l.reviewed_at, l.review_notes, l.created_at,
	p.full_name, COALESCE(p.role, '') AS person_role`

func leaveRowsQuery() *gorm.DB {
	return database.DB.Table("leave_requests AS l").
		Joins("JOIN people p ON p.id = l.person_id").
		Select(leaveRowSelect).
		Order("l.created_at DESC")
}

// POST /leave
func (h *LeaveHandler) Create(c echo.Context) error {
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

	var req createLeaveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}

	start, err := parseDate(strings.TrimSpace(req.StartDate))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_DATE"})
	}
	end, err := parseDate(strings.TrimSpace(req.EndDate))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_DATE"})
	}
	if end < start {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "END_BEFORE_START"})
	}
	if !models.ValidLeaveType(req.LeaveType) {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_LEAVE_TYPE"})
	}

	// one non-rejected request per person per overlapping range
	var overlapping int64
	if err := database.DB.Model(&models.LeaveRequest{}).
		Where("person_id = ? AND status <> ?", p.ID, models.LeaveRejected).
		Where("start_date <= ? AND end_date >= ?", end, start).
		Count(&overlapping).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	if overlapping > 0 {
		return c.JSON(http.StatusConflict, map[string]any{"error": "OVERLAPPING_LEAVE"})
	}

	rec := models.LeaveRequest{
		PersonID:  p.ID,
		StartDate: start,
		EndDate:   end,
		LeaveType: req.LeaveType,
		Reason:    strings.TrimSpace(req.Reason),
		Status:    models.LeavePending,
	}
	if err := database.DB.Create(&rec).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_SAVE_ERROR"})
	}
	return c.JSON(http.StatusCreated, rec)
}

// GET /leave/mine
func (h *LeaveHandler) Mine(c echo.Context) error {
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

	var rows []leaveRow
	if err := leaveRowsQuery().Where("l.person_id = ?", p.ID).Scan(&rows).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	if rows == nil {
		rows = []leaveRow{}
	}
	return c.JSON(http.StatusOK, rows)
}

// DELETE /leave/:id
// Only the owner may cancel, and only while pending. Cancellation is a hard
// delete, not a status change.
func (h *LeaveHandler) Cancel(c echo.Context) error {
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

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}

	var req models.LeaveRequest
	if err := database.DB.First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	if req.PersonID != p.ID {
		return c.JSON(http.StatusForbidden, map[string]any{"error": "NOT_YOUR_REQUEST"})
	}
	if req.Status != models.LeavePending {
		return c.JSON(http.StatusConflict, map[string]any{"error": "NOT_PENDING"})
	}

	if err := database.DB.Delete(&req).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// GET /admin/leave?status=
func (h *LeaveHandler) ListAll(c echo.Context) error {
	status := strings.TrimSpace(c.QueryParam("status"))

	tx := leaveRowsQuery()
	if status != "" && status != "all" {
		tx = tx.Where("l.status = ?", status)
	}
	var rows []leaveRow
	if err := tx.Scan(&rows).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	if rows == nil {
		rows = []leaveRow{}
	}
	return c.JSON(http.StatusOK, rows)
}

// GET /admin/leave/pending-count
func (h *LeaveHandler) PendingCount(c echo.Context) error {
	var n int64
	if err := database.DB.Model(&models.LeaveRequest{}).
		Where("status = ?", models.LeavePending).Count(&n).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	return c.JSON(http.StatusOK, map[string]any{"count": n})
}

type reviewLeaveReq struct {
	Decision string `json:"decision"` // "approved" | "rejected"
	Notes    string `json:"notes"`
}

// POST /admin/leave/:id/review
// A request is reviewed exactly once. Approval materializes one leave row per
// covered date; the status update and the per-day upserts share a transaction,
// so approval is all-or-nothing.
func (h *LeaveHandler) Review(c echo.Context) error {
	reviewerID, err := currentUserID(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}

	var body reviewLeaveReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	if body.Decision != models.LeaveApproved && body.Decision != models.LeaveRejected {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_DECISION"})
	}

	var req models.LeaveRequest
	if err := database.DB.First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	if req.Status != models.LeavePending {
		return c.JSON(http.StatusConflict, map[string]any{"error": "ALREADY_REVIEWED"})
	}

	now := time.Now()
	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":       body.Decision,
			"reviewed_by":  reviewerID,
			"reviewed_at":  now,
			"review_notes": strings.TrimSpace(body.Notes),
		}
		if err := tx.Model(&models.LeaveRequest{}).Where("id = ?", req.ID).Updates(updates).Error; err != nil {
			return err
		}
		if body.Decision != models.LeaveApproved {
			return nil
		}

		days, err := dateRange(req.StartDate, req.EndDate)
		if err != nil {
			return err
		}
		status := models.StatusLeave
		rows := make([]models.AttendanceLog, 0, len(days))
		for _, day := range days {
			rows = append(rows, models.AttendanceLog{
				PersonID:       req.PersonID,
				AttendanceDate: day,
				Status:         &status,
				RecordedBy:     &reviewerID,
			})
		}
		// leave wins over any prior punch or absent mark on those dates
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "person_id"}, {Name: "attendance_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "recorded_by", "updated_at"}),
		}).Create(&rows).Error
	})
	if txErr != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_SAVE_ERROR"})
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}
