package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/anupp-11/smartiplace-logs/database"
	"github.com/anupp-11/smartiplace-logs/models"
)

const dateLayout = "2006-01-02"

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// currentUserID reads the user id set by the auth middleware.
func currentUserID(c echo.Context) (uuid.UUID, error) {
	uid, ok := c.Get("user_id").(uuid.UUID)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, map[string]any{"error": "INVALID_TOKEN"})
	}
	return uid, nil
}

var errNotLinked = errors.New("account not linked to a person")

// resolvePerson maps an authenticated account to its Person record.
// An unlinked account is a normal, user-facing condition, not a failure.
func resolvePerson(userID uuid.UUID) (*models.Person, error) {
	var p models.Person
	err := database.DB.Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errNotLinked
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// notLinkedResponse is the uniform reply for member operations on an
// account without a person profile.
func notLinkedResponse(c echo.Context) error {
	return c.JSON(http.StatusForbidden, map[string]any{
		"error":   "NOT_LINKED",
		"message": "Your account is not linked to a person profile. Contact admin.",
	})
}

func todayDate() string {
	return time.Now().Format(dateLayout)
}

func parseDate(s string) (string, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", err
	}
	return t.Format(dateLayout), nil
}

// dateRange expands an inclusive [start, end] range into individual dates.
// Both bounds must be YYYY-MM-DD and end must not precede start.
func dateRange(start, end string) ([]string, error) {
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, err
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("end date %s precedes start date %s", end, start)
	}
	var days []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(dateLayout))
	}
	return days, nil
}

// mapsURL renders a coordinate pair as a Google Maps link, or "" when either
// coordinate is missing.
func mapsURL(lat, lng *float64) string {
	if lat == nil || lng == nil {
		return ""
	}
	return fmt.Sprintf("https://www.google.com/maps?q=%v,%v", *lat, *lng)
}
