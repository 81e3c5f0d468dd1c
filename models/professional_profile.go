package models

import (
	"time"

	"tabib.link/pkg/availability"
)

// ProfessionalProfile holds the role-specific attributes of a bookable user:
// practice information plus the working window the availability check reads.
// Times are "HH:MM" wall-clock strings; a window whose end precedes its start
// crosses midnight (night pharmacies).
type ProfessionalProfile struct {
	BaseModel
	UserID            uint    `gorm:"uniqueIndex;not null" json:"user_id"`
	Specialty         string  `gorm:"type:varchar(100);index" json:"specialty"`
	Address           string  `gorm:"type:varchar(255)" json:"address"`
	City              string  `gorm:"type:varchar(100);index" json:"city"`
	Description       string  `gorm:"type:text" json:"description"`
	ConsultationPrice float64 `gorm:"type:numeric(12,2);default:0.00" json:"consultation_price"`
	WorkStart         string  `gorm:"type:varchar(5);not null;default:'09:00'" json:"work_start"`
	WorkEnd           string  `gorm:"type:varchar(5);not null;default:'17:00'" json:"work_end"`
	VacationMode      bool    `gorm:"default:false" json:"vacation_mode"`
}

// AvailabilityConfig snapshots the profile into the explicit config value the
// availability check consumes, so the check never reads ambient state.
func (p ProfessionalProfile) AvailabilityConfig(slotLength time.Duration) availability.Config {
	return availability.Config{
		WorkStart:  p.WorkStart,
		WorkEnd:    p.WorkEnd,
		Vacation:   p.VacationMode,
		SlotLength: slotLength,
	}
}
