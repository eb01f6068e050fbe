package auth

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated shop owner account.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
