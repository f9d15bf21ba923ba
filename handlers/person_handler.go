package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anupp-11/smartiplace-logs/database"
	"github.com/anupp-11/smartiplace-logs/models"
)

type PersonHandler struct{}

func NewPersonHandler() *PersonHandler { return &PersonHandler{} }

type personReq struct {
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	Email    string `json:"email" validate:"omitempty,email"`
	// optional credential; when both email and password are set a login
	// account is provisioned and linked in the same transaction
	Password string `json:"password" validate:"omitempty,min=6"`
}

// GET /admin/people
func (h *PersonHandler) List(c echo.Context) error {
	var people []models.Person
	if err := database.DB.Order("full_name ASC").Find(&people).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	return c.JSON(http.StatusOK, people)
}

// GET /admin/people/:id
func (h *PersonHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}
	var p models.Person
	if err := database.DB.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	return c.JSON(http.StatusOK, p)
}

// POST /admin/people
// Person create plus optional credential provisioning. User, role row and
// person are written in one transaction so a failed person insert never
// leaves an orphaned login behind.
func (h *PersonHandler) Create(c echo.Context) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req personReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Password = strings.TrimSpace(req.Password)
	if err := c.Validate(&req); err != nil {
		return err
	}
	fullName, email, password := req.FullName, req.Email, req.Password

	provision := email != "" && password != ""

	p := models.Person{
		FullName:  fullName,
		Role:      strings.TrimSpace(req.Role),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     email,
		CreatedBy: &adminID,
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if provision {
			var dup models.User
			if err := tx.Where("email = ?", email).First(&dup).Error; err == nil {
				return errEmailTaken
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			u := models.User{Email: email, PasswordHash: string(hash)}
			if err := tx.Create(&u).Error; err != nil {
				return err
			}
			role := models.UserRole{UserID: u.ID, Role: models.RoleMember}
			if err := tx.Create(&role).Error; err != nil {
				return err
			}
			p.UserID = &u.ID
		}
		return tx.Create(&p).Error
	})
	if txErr != nil {
		if errors.Is(txErr, errEmailTaken) {
			return c.JSON(http.StatusConflict, map[string]any{"error": "EMAIL_EXISTS"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_SAVE_ERROR"})
	}
	return c.JSON(http.StatusCreated, p)
}

var errEmailTaken = errors.New("email already registered")

// PUT /admin/people/:id
func (h *PersonHandler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}

	var req personReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := c.Validate(&req); err != nil {
		return err
	}
	fullName := req.FullName

	var p models.Person
	if err := database.DB.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}

	updates := map[string]any{
		"full_name": fullName,
		"role":      strings.TrimSpace(req.Role),
		"phone":     strings.TrimSpace(req.Phone),
		"email":     strings.TrimSpace(strings.ToLower(req.Email)),
	}
	if err := database.DB.Model(&p).Updates(updates).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_SAVE_ERROR"})
	}
	return c.JSON(http.StatusOK, p)
}

// DELETE /admin/people/:id
// Attendance logs and leave requests go with the person via FK cascade.
func (h *PersonHandler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}
	res := database.DB.Delete(&models.Person{}, "id = ?", id)
	if res.Error != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	if res.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// GET /admin/people/:id/logs
// Last 100 attendance rows for one person, newest first.
func (h *PersonHandler) Logs(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}
	var logs []models.AttendanceLog
	if err := database.DB.
		Where("person_id = ?", id).
		Order("attendance_date DESC, created_at DESC").
		Limit(100).
		Find(&logs).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}
	return c.JSON(http.StatusOK, logs)
}

// GET /admin/people/:id/leave-stats
func (h *PersonHandler) LeaveStats(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}
	var requests []models.LeaveRequest
	if err := database.DB.
		Where("person_id = ?", id).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_ERROR"})
	}

	var pending, approved, rejected int
	for _, r := range requests {
		switch r.Status {
		case models.LeavePending:
			pending++
		case models.LeaveApproved:
			approved++
		case models.LeaveRejected:
			rejected++
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"total":    len(requests),
		"pending":  pending,
		"approved": approved,
		"rejected": rejected,
		"requests": requests,
	})
}

type setRoleReq struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
}

// PUT /admin/user-roles
// Upsert keyed on user_id; promoting and demoting go through the same call.
func (h *PersonHandler) SetUserRole(c echo.Context) error {
	var req setRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	if req.UserID == uuid.Nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "MISSING_FIELDS"})
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleMember {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ROLE"})
	}

	row := models.UserRole{UserID: req.UserID, Role: req.Role}
	if err := database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{"role": req.Role}),
	}).Create(&row).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_SAVE_ERROR"})
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}
