package events

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketAssigned EventType = "ticket_assigned"
	EventTicketResolved EventType = "ticket_resolved"
	EventReplyAdded     EventType = "reply_added"
	EventReplyUpdated   EventType = "reply_updated"
	EventReplyDeleted   EventType = "reply_deleted"
)

// Actor encapsulates who triggered an event and under which role.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	CustomerUserID string                `json:"customer_user_id"`
	AgentUserID    string                `json:"agent_user_id"`
	Category       domain.TicketCategory `json:"category"`
	BookingID      *string               `json:"booking_id,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AgentUserID string `json:"agent_user_id"`
}

// TicketResolvedPayload payload.
type TicketResolvedPayload struct {
	CustomerUserID string                `json:"customer_user_id"`
	AgentUserID    string                `json:"agent_user_id"`
	Category       domain.TicketCategory `json:"category"`
	ResolvedAt     time.Time             `json:"resolved_at"`
}

// ReplyAddedPayload payload.
type ReplyAddedPayload struct {
	ReplyID     string      `json:"reply_id"`
	AuthorRole  domain.Role `json:"author_role"`
	BodyPreview string      `json:"body_preview"`
}

// ReplyUpdatedPayload payload.
type ReplyUpdatedPayload struct {
	ReplyID string `json:"reply_id"`
}

// ReplyDeletedPayload payload.
type ReplyDeletedPayload struct {
	ReplyID string `json:"reply_id"`
}
