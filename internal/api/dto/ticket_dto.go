package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

// NoEmail is rendered when a party email cannot be resolved.
const NoEmail = "No Email"

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	UserID      string  `json:"user_id"`
	BookingID   *string `json:"booking_id"`
	Description string  `json:"description"`
	Role        string  `json:"role"`
}

// TicketCreatedResponse is returned after ticket creation.
type TicketCreatedResponse struct {
	TicketID    string    `json:"ticketId"`
	Status      string    `json:"status"`
	Category    string    `json:"category"`
	AgentUserID string    `json:"agentUserId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SimpleTicket is the search listing projection.
type SimpleTicket struct {
	TicketID      string    `json:"ticketId"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	CustomerEmail string    `json:"customerEmail"`
	AgentEmail    string    `json:"agentEmail"`
}

// TicketDetailResponse is the single-ticket projection with its paginated
// reply thread.
type TicketDetailResponse struct {
	TicketID    string          `json:"ticketId"`
	Status      string          `json:"status"`
	Category    string          `json:"category"`
	Time        time.Time       `json:"time"`
	Description string          `json:"description"`
	Responses   []ReplyResponse `json:"responses"`
	TotalPages  int             `json:"totalPages"`
}

// NewTicketCreatedResponse maps a freshly created ticket.
func NewTicketCreatedResponse(ticket *domain.Ticket) TicketCreatedResponse {
	resp := TicketCreatedResponse{
		TicketID:  ticket.ID,
		Status:    string(ticket.Status),
		Category:  string(ticket.Category),
		CreatedAt: ticket.CreatedAt,
	}
	if ticket.AgentUserID != nil {
		resp.AgentUserID = *ticket.AgentUserID
	}
	return resp
}

// NewSimpleTicket maps a ticket listing row.
func NewSimpleTicket(listing repository.TicketListing) SimpleTicket {
	return SimpleTicket{
		TicketID:      listing.ID,
		Description:   listing.Description,
		Status:        string(listing.Status),
		CreatedAt:     listing.CreatedAt,
		CustomerEmail: orNoEmail(listing.CustomerEmail),
		AgentEmail:    orNoEmailPtr(listing.AgentEmail),
	}
}

// NewSimpleTickets maps a listing slice, never nil.
func NewSimpleTickets(listings []repository.TicketListing) []SimpleTicket {
	out := make([]SimpleTicket, 0, len(listings))
	for _, listing := range listings {
		out = append(out, NewSimpleTicket(listing))
	}
	return out
}

func orNoEmail(email string) string {
	if email == "" {
		return NoEmail
	}
	return email
}

func orNoEmailPtr(email *string) string {
	if email == nil || *email == "" {
		return NoEmail
	}
	return *email
}
