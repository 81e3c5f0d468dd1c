package models

import "time"

// RdvStatus is the lifecycle state of a rendez-vous.
type RdvStatus string

const (
	RdvStatusPending   RdvStatus = "pending"
	RdvStatusConfirmed RdvStatus = "confirmed"
	RdvStatusCancelled RdvStatus = "cancelled"
	RdvStatusCompleted RdvStatus = "completed"
	RdvStatusMissed    RdvStatus = "missed"
)

// Valid reports whether s is a known status.
func (s RdvStatus) Valid() bool {
	switch s {
	case RdvStatusPending, RdvStatusConfirmed, RdvStatusCancelled, RdvStatusCompleted, RdvStatusMissed:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s RdvStatus) Terminal() bool {
	switch s {
	case RdvStatusCancelled, RdvStatusCompleted, RdvStatusMissed:
		return true
	}
	return false
}

// rdvTransitions is the lifecycle graph:
// pending -> {confirmed, cancelled}; confirmed -> {cancelled, completed, missed}.
var rdvTransitions = map[RdvStatus][]RdvStatus{
	RdvStatusPending:   {RdvStatusConfirmed, RdvStatusCancelled},
	RdvStatusConfirmed: {RdvStatusCancelled, RdvStatusCompleted, RdvStatusMissed},
}

// CanTransitionTo reports whether the lifecycle graph allows s -> to.
func (s RdvStatus) CanTransitionTo(to RdvStatus) bool {
	for _, next := range rdvTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// RdvActor says which side of the rendez-vous is requesting a transition.
type RdvActor string

const (
	RdvActorPatient      RdvActor = "patient"
	RdvActorProfessional RdvActor = "professional"
)

// TransitionAllowed combines the lifecycle graph with role authorization:
// the patient may only cancel; the professional may confirm, cancel, and
// close out a confirmed rendez-vous as completed or missed.
func TransitionAllowed(actor RdvActor, from, to RdvStatus) bool {
	if !from.CanTransitionTo(to) {
		return false
	}
	switch actor {
	case RdvActorPatient:
		return to == RdvStatusCancelled
	case RdvActorProfessional:
		return true
	}
	return false
}

// RendezVous is an appointment between a patient and a professional.
// Created by the patient's booking request; mutated only through status
// transitions afterwards.
type RendezVous struct {
	BaseModel
	PatientID        uint      `gorm:"index;not null" json:"patient_id"`
	ProfessionalID   uint      `gorm:"index:idx_rdv_professional_time;not null" json:"professional_id"`
	ProfessionalRole Role      `gorm:"type:varchar(20);not null" json:"professional_role"`
	ScheduledAt      time.Time `gorm:"index:idx_rdv_professional_time;not null" json:"scheduled_at"`
	Status           RdvStatus `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`
	AnnonceID        *uint     `gorm:"index" json:"annonce_id,omitempty"`
	Reason           string    `gorm:"type:varchar(255)" json:"reason"`
	Notes            string    `gorm:"type:text" json:"notes"`

	Patient      User     `gorm:"foreignKey:PatientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Professional User     `gorm:"foreignKey:ProfessionalID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Annonce      *Annonce `gorm:"foreignKey:AnnonceID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"annonce,omitempty"`
}
