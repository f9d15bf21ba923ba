// scripts/create_admin.go
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anupp-11/smartiplace-logs/config"
	"github.com/anupp-11/smartiplace-logs/database"
	"github.com/anupp-11/smartiplace-logs/models"
)

// Bootstraps the first admin account:
//
//	go run scripts/create_admin.go admin@example.com somepassword
func main() {
	if len(os.Args) != 3 {
		log.Fatalf("usage: %s <email> <password>", os.Args[0])
	}
	email := strings.TrimSpace(strings.ToLower(os.Args[1]))
	password := os.Args[2]
	if len(password) < 6 {
		log.Fatal("password must be at least 6 characters")
	}

	cfg := config.Load()
	database.Connect(cfg)

	var existing models.User
	err := database.DB.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		fmt.Println("user already exists:", email, "- promoting to admin")
		promote(existing.ID)
		return
	case err != gorm.ErrRecordNotFound:
		log.Fatalf("failed to query users: %v", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	u := models.User{Email: email, PasswordHash: string(hashed)}
	if err := database.DB.Create(&u).Error; err != nil {
		log.Fatalf("failed to insert admin: %v", err)
	}
	promote(u.ID)

	fmt.Println("admin user created:", email)
	fmt.Println("remember to change the password after first login")
}

func promote(userID uuid.UUID) {
	row := models.UserRole{UserID: userID, Role: models.RoleAdmin}
	if err := database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{"role": models.RoleAdmin}),
	}).Create(&row).Error; err != nil {
		log.Fatalf("failed to set admin role: %v", err)
	}
}
