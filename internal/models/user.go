package models

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors an identity provider account. The ID is the provider's
// subject claim, so rows are created on first contact rather than at sign-up.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"size:255;index" json:"email"`
	FullName  string    `gorm:"size:120" json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
