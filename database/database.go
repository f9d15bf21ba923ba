package database

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/anupp-11/smartiplace-logs/config"
	"github.com/anupp-11/smartiplace-logs/models"
)

var DB *gorm.DB

func Connect(cfg *config.Config) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	DB = db

	if err := Migrate(DB); err != nil {
		log.Fatalf("auto migrate failed: %v", err)
	}
}

// Migrate creates/updates the four domain tables plus the auth tables.
// Order matters: referenced tables first so the FK constraints can be built.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserRole{},
		&models.Person{},
		&models.AttendanceLog{},
		&models.LeaveRequest{},
	)
}
