package domain

import "time"

const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// Account is a stored user together with its credentials.
type Account struct {
	User
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
