package domain

import "time"

type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Phone        string
	Address      string
	Avatar       string
	Bio          string
	// Password-reset OTP state. The hash is bcrypt; both fields are cleared
	// once the password has been reset.
	ResetOTPHash      string
	ResetOTPExpiresAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// UserSummary is the subset of user fields exposed alongside bookings.
type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
