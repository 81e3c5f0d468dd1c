package models

// Role discriminates what kind of account a user row is.
type Role string

const (
	RolePatient   Role = "patient"
	RoleMedecin   Role = "medecin"
	RoleClinique  Role = "clinique"
	RolePharmacie Role = "pharmacie"
	RoleAdmin     Role = "admin"
)

// ProfessionalRoles lists the roles that own a ProfessionalProfile and can be
// booked for a rendez-vous.
var ProfessionalRoles = []Role{RoleMedecin, RoleClinique, RolePharmacie}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleMedecin, RoleClinique, RolePharmacie, RoleAdmin:
		return true
	}
	return false
}

// Professional reports whether r is bookable (owns working hours).
func (r Role) Professional() bool {
	for _, pr := range ProfessionalRoles {
		if r == pr {
			return true
		}
	}
	return false
}

// User is the identity row. A professional user owns exactly one
// ProfessionalProfile; patients own none.
type User struct {
	BaseModel
	Name         string `gorm:"type:varchar(150);not null" json:"name"`
	Email        string `gorm:"type:varchar(190);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	Phone        string `gorm:"type:varchar(30)" json:"phone"`
	Role         Role   `gorm:"type:varchar(20);index;not null;default:'patient'" json:"role"`
	IsActive     bool   `gorm:"default:true;index" json:"is_active"`
	IsSystem     bool   `gorm:"default:false" json:"-"`

	Profile *ProfessionalProfile `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"profile,omitempty"`
}
