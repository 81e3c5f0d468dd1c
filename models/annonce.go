package models

// Annonce is a professional's promotional listing. A rendez-vous may
// reference one for pricing context.
type Annonce struct {
	BaseModel
	OwnerID         uint    `gorm:"index;not null" json:"owner_id"`
	Title           string  `gorm:"type:varchar(200);not null" json:"title"`
	Description     string  `gorm:"type:text" json:"description"`
	Price           float64 `gorm:"type:numeric(12,2);not null;default:0.00" json:"price"`
	DiscountPercent int     `gorm:"not null;default:0" json:"discount_percent"`
	IsActive        bool    `gorm:"default:true;index" json:"is_active"`

	Owner User `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// DiscountedPrice applies the discount percentage to the listed price.
func (a Annonce) DiscountedPrice() float64 {
	if a.DiscountPercent <= 0 {
		return a.Price
	}
	return a.Price * float64(100-a.DiscountPercent) / 100
}
