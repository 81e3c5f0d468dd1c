package models

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationKind classifies what a stored notification is about.
type NotificationKind string

const (
	NotificationRdvBooked           NotificationKind = "rdv_booked"
	NotificationRdvUpdated          NotificationKind = "rdv_updated"
	NotificationRdvCancelled        NotificationKind = "rdv_cancelled"
	NotificationSubscriptionUpdated NotificationKind = "subscription_updated"
)

// Notification is a denormalized per-user record: the payload snapshots
// whatever the recipient needs to render the line without further joins.
type Notification struct {
	BaseModel
	UserID  uint             `gorm:"index;not null" json:"user_id"`
	Kind    NotificationKind `gorm:"type:varchar(40);index;not null" json:"kind"`
	Payload datatypes.JSON   `gorm:"type:jsonb" json:"payload"`
	ReadAt  *time.Time       `gorm:"index" json:"read_at,omitempty"`

	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// Read reports whether the notification has been acknowledged.
func (n Notification) Read() bool { return n.ReadAt != nil }
