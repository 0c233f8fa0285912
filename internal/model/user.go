package model

import (
	"time"
)

type UserRole string

const (
	Learner UserRole = "learner"
	Mentor  UserRole = "mentor"
	Admin   UserRole = "admin"
)

// Valid 角色是否属于已知集合
func (r UserRole) Valid() bool {
	switch r {
	case Learner, Mentor, Admin:
		return true
	}
	return false
}

// swagger:model User
type User struct {
	BaseModel
	Name     string     `gorm:"size:100;not null" json:"name"`
	Email    string     `gorm:"size:100;unique;not null" json:"email"`
	Role     UserRole   `gorm:"size:20;index;default:'learner'" json:"role"`
	Disabled bool       `gorm:"default:false" json:"disabled"`
	LastSeen *time.Time `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}
