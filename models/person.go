package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee record. Distinct from the login account: UserID links the two and
// stays nil until an account is provisioned or auto-linked by email.
type Person struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	FullName  string     `json:"full_name" gorm:"size:120;not null"`
	Role      string     `json:"role" gorm:"size:60"` // free-text job label, not the access role
	Phone     string     `json:"phone" gorm:"size:30"`
	Email     string     `json:"email" gorm:"size:120"`
	UserID    *uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex"`
	CreatedBy *uuid.UUID `json:"created_by" gorm:"type:uuid"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}

func (p *Person) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
