package models

import (
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone        *string   `gorm:"type:varchar(32);uniqueIndex" json:"phone"`
	FirstName    string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName     string    `gorm:"type:varchar(150)" json:"last_name"`
	Position     string    `gorm:"type:varchar(100)" json:"position"`
	Company      string    `gorm:"type:varchar(255)" json:"company"`
	Department   string    `gorm:"type:varchar(100)" json:"department"`
	Address      string    `gorm:"type:text" json:"address"`
	Notes        string    `gorm:"type:text" json:"notes"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'employee';index" json:"role"`
	IsSuperuser  bool      `gorm:"not null;default:false" json:"is_superuser"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Assignments []TaskAssignment  `gorm:"foreignKey:UserID" json:"-"`
	Memberships []TaskGroupMember `gorm:"foreignKey:UserID" json:"-"`
}

// IsEmployee reports whether the user may be assigned to tasks and groups.
func (u User) IsEmployee() bool {
	return u.Role == RoleEmployee
}
