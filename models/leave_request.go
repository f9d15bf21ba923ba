package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LeavePending  = "pending"
	LeaveApproved = "approved"
	LeaveRejected = "rejected"
)

// LeaveTypes lists the accepted values for LeaveRequest.LeaveType.
var LeaveTypes = []string{"sick", "casual", "annual", "emergency", "other"}

type LeaveRequest struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	PersonID uuid.UUID `json:"person_id" gorm:"type:uuid;index;not null"`

	StartDate string `json:"start_date" gorm:"size:10;not null"` // YYYY-MM-DD, inclusive
	EndDate   string `json:"end_date" gorm:"size:10;not null"`   // YYYY-MM-DD, inclusive
	LeaveType string `json:"leave_type" gorm:"size:20;not null"`
	Reason    string `json:"reason" gorm:"type:text"`
	Status    string `json:"status" gorm:"size:10;not null;default:pending"` // pending/approved/rejected

	ReviewedBy  *uuid.UUID `json:"reviewed_by" gorm:"type:uuid"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	ReviewNotes string     `json:"review_notes" gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at"`

	Person *Person `json:"-" gorm:"foreignKey:PersonID;constraint:OnDelete:CASCADE"`
}

func (l *LeaveRequest) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// ValidLeaveType reports whether t is one of the accepted leave types.
func ValidLeaveType(t string) bool {
	for _, v := range LeaveTypes {
		if t == v {
			return true
		}
	}
	return false
}
