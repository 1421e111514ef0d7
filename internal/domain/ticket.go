package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusActive   TicketStatus = "ACTIVE"
	TicketStatusResolved TicketStatus = "RESOLVED"
)

// ParseTicketStatus normalizes a caller-supplied status string.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	switch TicketStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case TicketStatusActive:
		return TicketStatusActive, true
	case TicketStatusResolved:
		return TicketStatusResolved, true
	default:
		return "", false
	}
}

// TicketCategory partitions tickets by booking linkage. It is fixed at
// creation time and never changes.
type TicketCategory string

const (
	CategoryPrebooking  TicketCategory = "PREBOOKING"
	CategoryPostbooking TicketCategory = "POSTBOOKING"
)

// ParseTicketCategory normalizes a caller-supplied category string.
func ParseTicketCategory(raw string) (TicketCategory, bool) {
	switch TicketCategory(strings.ToUpper(strings.TrimSpace(raw))) {
	case CategoryPrebooking:
		return CategoryPrebooking, true
	case CategoryPostbooking:
		return CategoryPostbooking, true
	default:
		return "", false
	}
}

// Ticket is the aggregate for support requests. AgentUserID is assigned at
// creation and never reassigned; ResolvedAt is set exactly once on the
// ACTIVE -> RESOLVED transition.
type Ticket struct {
	ID             string
	CustomerUserID string
	AgentUserID    *string
	BookingID      *string
	Category       TicketCategory
	Description    string
	Status         TicketStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ResolvedAt     *time.Time
}
