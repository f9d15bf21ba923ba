package middlewares

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/anupp-11/smartiplace-logs/database"
	"github.com/anupp-11/smartiplace-logs/models"
)

// ResolveRole returns the access role for a user. A missing user_roles row is
// the normal case for regular members, so it resolves to RoleMember and is
// never an error.
func ResolveRole(db *gorm.DB, userID uuid.UUID) string {
	var r models.UserRole
	if err := db.Where("user_id = ?", userID).First(&r).Error; err != nil {
		return models.RoleMember
	}
	if r.Role == models.RoleAdmin {
		return models.RoleAdmin
	}
	return models.RoleMember
}

// RequireAdmin resolves the role from the database on every request, so a
// revoked admin loses access without having to wait for token expiry.
// Must run after RequireAuth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, ok := c.Get("user_id").(uuid.UUID)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, map[string]any{"error": "INVALID_TOKEN"})
			}
			role := ResolveRole(database.DB, uid)
			if role != models.RoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, map[string]any{"error": "FORBIDDEN"})
			}
			c.Set("role", role)
			return next(c)
		}
	}
}
