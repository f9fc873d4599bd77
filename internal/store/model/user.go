package model

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleEmployee UserRole = "employee"
	RoleAdmin    UserRole = "admin"
)

type User struct {
	ID        string   `gorm:"primaryKey;column:id;type:VARCHAR(255)"`
	Email     string   `gorm:"column:email;type:VARCHAR(255);index"`
	FirstName string   `gorm:"column:first_name;type:VARCHAR(255)"`
	LastName  string   `gorm:"column:last_name;type:VARCHAR(255)"`
	Role      UserRole `gorm:"column:role;type:VARCHAR(32);not null;default:employee"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName joins first and last name. It is empty when neither is known.
func (u User) DisplayName() string {
	return strings.TrimSpace(strings.Join([]string{u.FirstName, u.LastName}, " "))
}
