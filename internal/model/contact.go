package model

import "time"

// Contact is a message sent through the public contact form.
type Contact struct {
	ID      uint      `json:"id" gorm:"primaryKey"`
	Name    string    `json:"name" gorm:"size:200;not null"`
	Email   string    `json:"email" gorm:"size:200;not null"`
	Phone   string    `json:"phone,omitempty" gorm:"size:20"`
	Message string    `json:"message" gorm:"size:2000;not null"`
	SentAt  time.Time `json:"sent_at" gorm:"not null;index"`
	Read    bool      `json:"read" gorm:"column:is_read;not null;default:false;index"`
}
