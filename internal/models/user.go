package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account in the identity store.
type User struct {
	gorm.Model
	Username     string `gorm:"size:50;uniqueIndex;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	IsVerified   bool   `gorm:"not null;default:false"`

	// Set by the password reset flow, cleared once the password is changed.
	ResetToken        *string `gorm:"size:64;index"`
	ResetTokenExpires *time.Time

	Profile Profile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
}

// Profile holds the editable, non-credential part of an account.
type Profile struct {
	ID     uint   `gorm:"primaryKey"`
	UserID uint   `gorm:"uniqueIndex;not null"`
	Name   string `gorm:"size:100"`
	Bio    string `gorm:"size:500"`
	Gender string `gorm:"size:20"`
}
