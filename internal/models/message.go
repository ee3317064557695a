package models

import "time"

// Message is a direct message between two users.
type Message struct {
	ID         uint      `gorm:"primaryKey"`
	SenderID   uint      `gorm:"not null;index:idx_message_pair,priority:1"`
	ReceiverID uint      `gorm:"not null;index:idx_message_pair,priority:2"`
	Content    string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"index"`

	Sender User `gorm:"foreignKey:SenderID"`
}
