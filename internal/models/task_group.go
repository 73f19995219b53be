package models

import "time"

type TaskGroup struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatorID *uint64   `gorm:"index" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Creator *User             `gorm:"foreignKey:CreatorID;constraint:OnDelete:SET NULL" json:"-"`
	Members []TaskGroupMember `gorm:"foreignKey:GroupID" json:"-"`
}

// MemberIDs returns the IDs of the group's members, as loaded.
func (g TaskGroup) MemberIDs() []uint64 {
	ids := make([]uint64, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UserID
	}
	return ids
}

type TaskGroupMember struct {
	GroupID  uint64    `gorm:"primarykey" json:"group_id"`
	UserID   uint64    `gorm:"primarykey;index" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`

	// Relations
	Group TaskGroup `gorm:"foreignKey:GroupID" json:"-"`
	User  User      `gorm:"foreignKey:UserID" json:"-"`
}
