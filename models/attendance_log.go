package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLeave   = "leave"
	StatusHalfDay = "half-day"
)

// AttendanceStatuses lists the accepted values for AttendanceLog.Status.
var AttendanceStatuses = []string{StatusPresent, StatusAbsent, StatusLeave, StatusHalfDay}

// One row per person per calendar date; the composite unique index is the
// upsert key that keeps concurrent punches and the auto-absent job race-safe.
type AttendanceLog struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	PersonID       uuid.UUID `json:"person_id" gorm:"type:uuid;not null;uniqueIndex:idx_attendance_person_date"`
	AttendanceDate string    `json:"attendance_date" gorm:"size:10;not null;uniqueIndex:idx_attendance_person_date"` // YYYY-MM-DD
	Status         *string   `json:"status" gorm:"size:10"`                                                          // present/absent/leave/half-day, nil = unrecorded
	Notes          string    `json:"notes" gorm:"type:text"`

	PunchInTime    *time.Time `json:"punch_in_time"`
	PunchOutTime   *time.Time `json:"punch_out_time"`
	PunchInLat     *float64   `json:"punch_in_latitude"`
	PunchInLng     *float64   `json:"punch_in_longitude"`
	PunchInAddr    string     `json:"punch_in_address" gorm:"size:255"`
	PunchOutLat    *float64   `json:"punch_out_latitude"`
	PunchOutLng    *float64   `json:"punch_out_longitude"`
	PunchOutAddr   string     `json:"punch_out_address" gorm:"size:255"`

	RecordedBy *uuid.UUID `json:"recorded_by" gorm:"type:uuid"` // nil = system-generated
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Person *Person `json:"-" gorm:"foreignKey:PersonID;constraint:OnDelete:CASCADE"`
}

func (a *AttendanceLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ValidStatus reports whether s is one of the accepted attendance statuses.
func ValidStatus(s string) bool {
	for _, v := range AttendanceStatuses {
		if s == v {
			return true
		}
	}
	return false
}
