package models

import "time"

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleStudent Role = "STUDENT"
)

// DefaultPassword is assigned to accounts created by an administrator.
const DefaultPassword = "123"

type User struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username      string    `gorm:"uniqueIndex;not null" json:"username"`
	Password      string    `gorm:"not null" json:"-"`
	Role          Role      `gorm:"type:varchar(10);not null;default:'STUDENT';index" json:"role"`
	Name          string    `gorm:"not null" json:"name"`
	Class         string    `gorm:"index" json:"class,omitempty"`
	ParentContact string    `json:"parent_contact,omitempty"`
	ChatID        *int64    `gorm:"uniqueIndex" json:"chat_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsAdmin reports whether the account has the administrator role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// HasParentContact reports whether notifications can be queued for this student.
func (u *User) HasParentContact() bool {
	return u.ParentContact != ""
}

// ClassOrDefault returns the class name used on records ("N/A" when unset).
func (u *User) ClassOrDefault() string {
	if u.Class == "" {
		return "N/A"
	}
	return u.Class
}

func (User) TableName() string {
	return "users"
}
