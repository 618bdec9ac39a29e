package model

import "time"

// RoleName is the closed set of access levels.
type RoleName string

const (
	RoleAdmin    RoleName = "ADMIN"
	RoleEmployee RoleName = "EMPLOYEE"
	RoleClient   RoleName = "CLIENT"
)

// AllRoles lists every role seeded at startup.
var AllRoles = []RoleName{RoleAdmin, RoleEmployee, RoleClient}

// Valid reports whether r is one of the known roles.
func (r RoleName) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Role is an access-level tag referenced by users.
type Role struct {
	ID   uint     `json:"id" gorm:"primaryKey"`
	Name RoleName `json:"name" gorm:"type:varchar(20);uniqueIndex;not null"`
}

// User represents an authenticated customer or staff member.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RUT          string    `json:"rut" gorm:"size:12;uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"size:100;not null"`
	Surname      string    `json:"surname" gorm:"size:100;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Region       string    `json:"region" gorm:"size:100"`
	Commune      string    `json:"commune" gorm:"size:100"`
	Address      string    `json:"address" gorm:"size:500"`
	RoleID       uint      `json:"role_id" gorm:"not null;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Role Role `json:"role" gorm:"foreignKey:RoleID"`
}
