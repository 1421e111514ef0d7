package domain

import (
	"strings"
	"time"
)

// Role determines which tickets and replies a user may act on.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAgent    Role = "AGENT"
)

// ParseRole normalizes a caller-supplied role string.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleCustomer:
		return RoleCustomer, true
	case RoleAgent:
		return RoleAgent, true
	default:
		return "", false
	}
}

// User is the domain model for customers and support agents.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
