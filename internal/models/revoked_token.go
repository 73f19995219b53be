package models

import "time"

// RevokedToken is a blacklisted JWT, keyed by its jti claim.
type RevokedToken struct {
	JTI       string    `gorm:"primarykey;type:varchar(64)" json:"jti"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
