package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type contextKey string

// ContextUserIDKey carries the acting user's id so the audit hooks below can
// stamp CreatedBy/UpdatedBy without every call site threading it by hand.
const ContextUserIDKey contextKey = "acting_user_id"

// ContextWithUserID returns ctx annotated with the acting user's id.
func ContextWithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, ContextUserIDKey, userID)
}

// BaseModel is embedded by every persisted entity: numeric PK, timestamps,
// soft delete and audit columns.
type BaseModel struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedBy *uint          `json:"-"`
	UpdatedBy *uint          `json:"-"`
	DeletedBy *uint          `json:"-"`
}

func userIDFromContext(ctx context.Context) *uint {
	if ctx == nil {
		return nil
	}
	if id, ok := ctx.Value(ContextUserIDKey).(uint); ok && id != 0 {
		return &id
	}
	return nil
}

// BeforeCreate stamps CreatedBy from the statement context.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if id := userIDFromContext(tx.Statement.Context); id != nil {
		m.CreatedBy = id
	}
	return nil
}

// BeforeUpdate stamps UpdatedBy from the statement context.
func (m *BaseModel) BeforeUpdate(tx *gorm.DB) error {
	if id := userIDFromContext(tx.Statement.Context); id != nil {
		m.UpdatedBy = id
	}
	return nil
}
