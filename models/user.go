package models

import "strings"

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleSales   = "sales"

	UserActive   = "active"
	UserInactive = "inactive"
)

var (
	UserRoles    = []string{RoleAdmin, RoleManager, RoleSales}
	UserStatuses = []string{UserActive, UserInactive}
)

// User represents a staff account in the system
type User struct {
	Base

	// Authentication fields
	Username     string `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	// Profile information
	FirstName string `gorm:"size:50" json:"first_name"`
	LastName  string `gorm:"size:50" json:"last_name"`

	// Account status
	Role   string `gorm:"size:20;not null;default:'sales'" json:"role"`
	Status string `gorm:"size:20;not null;default:'active';index" json:"status"`
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// IsActive reports whether the account may sign in.
func (u *User) IsActive() bool {
	return u.Status == UserActive
}

// ExtraUpdateColumns keeps the stored hash unless a new one was set.
func (u *User) ExtraUpdateColumns() []string {
	if u.PasswordHash == "" {
		return nil
	}
	return []string{"password_hash"}
}
