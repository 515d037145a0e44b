package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleOwner = "owner"
)

// User is a registered account. Only the fields orders and the admin
// bootstrap need are modelled here.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(120)" json:"name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string    `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `gorm:"type:varchar(20);default:'user'" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// IsAdmin reports whether the caller holds back-office capability.
func (i *Identity) IsAdmin() bool {
	return i != nil && (i.Role == RoleAdmin || i.Role == RoleOwner)
}
