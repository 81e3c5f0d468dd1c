package models

import "time"

// SubscriptionStatus mirrors the payment provider's subscription state enum.
type SubscriptionStatus string

const (
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusCancelled  SubscriptionStatus = "cancelled"
)

// Valid reports whether s is a known subscription status.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionStatusIncomplete, SubscriptionStatusActive,
		SubscriptionStatusPastDue, SubscriptionStatusCancelled:
		return true
	}
	return false
}

// SubscriptionPlan is a billable tier. ProviderPriceID ties the row to the
// price object on the payment provider's side.
type SubscriptionPlan struct {
	BaseModel
	Name             string  `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Tier             string  `gorm:"type:varchar(50);not null" json:"tier"`
	PriceMonthly     float64 `gorm:"type:numeric(12,2);not null;default:0.00" json:"price_monthly"`
	Currency         string  `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	ProviderPriceID  string  `gorm:"type:varchar(100);uniqueIndex;not null" json:"provider_price_id"`
	MaxFamilyMembers int     `gorm:"not null;default:0" json:"max_family_members"`
}

// Subscription is the local mirror of the provider's subscription object.
// It is updated by the webhook handler and read directly when displayed;
// there is no reconciliation loop.
type Subscription struct {
	BaseModel
	UserID                 uint               `gorm:"index;not null" json:"user_id"`
	PlanID                 uint               `gorm:"index;not null" json:"plan_id"`
	ProviderSubscriptionID string             `gorm:"type:varchar(100);uniqueIndex" json:"provider_subscription_id"`
	ProviderCustomerID     string             `gorm:"type:varchar(100);index" json:"-"`
	Status                 SubscriptionStatus `gorm:"type:varchar(20);index;not null;default:'incomplete'" json:"status"`
	CurrentPeriodStart     *time.Time         `json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time         `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd      bool               `gorm:"default:false" json:"cancel_at_period_end"`

	User          User             `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Plan          SubscriptionPlan `gorm:"foreignKey:PlanID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"plan"`
	FamilyMembers []FamilyMember   `gorm:"foreignKey:SubscriptionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"family_members,omitempty"`
}

// FamilyMember is a dependent covered by a family-tier subscription.
type FamilyMember struct {
	BaseModel
	SubscriptionID uint       `gorm:"index;not null" json:"subscription_id"`
	FullName       string     `gorm:"type:varchar(150);not null" json:"full_name"`
	Relation       string     `gorm:"type:varchar(50)" json:"relation"`
	BirthDate      *time.Time `gorm:"type:date" json:"birth_date,omitempty"`
}
