package models

import "time"

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleStaff    Role = "STAFF"
	RoleAdmin    Role = "ADMIN"
)

type User struct {
	Model
	Name         string     `gorm:"not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Phone        *string    `json:"phone"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         Role       `gorm:"type:varchar(16);index;not null;default:CUSTOMER" json:"role"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// PasswordResetToken is a short lived 6-digit code sent to a user who forgot the password.
type PasswordResetToken struct {
	Model
	Email   string    `gorm:"index;not null" json:"email"`
	Code    string    `gorm:"size:6;not null" json:"-"`
	Expires time.Time `gorm:"index;not null" json:"expires"`
	Used    bool      `gorm:"default:false" json:"used"`
}
