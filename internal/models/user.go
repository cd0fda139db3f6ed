package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the application account behind a connected store. New users created
// during the OAuth callback get a random placeholder password; login happens
// via OTP + session token, never via that password.
type User struct {
	ID           string    `json:"id" gorm:"type:uuid;primary_key"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
