package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

// CreateReplyRequest payload.
type CreateReplyRequest struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	ReplyData ReplyData `json:"replyData"`
}

// ReplyData carries the reply body.
type ReplyData struct {
	ResponseText string `json:"responseText"`
}

// UpdateReplyRequest payload.
type UpdateReplyRequest struct {
	UpdatedText string `json:"updatedText"`
}

// ReplyResponse is the thread reply projection. UserEmail is the sending
// side, AgentEmail the receiving side.
type ReplyResponse struct {
	ResponseID   string    `json:"responseId"`
	TicketID     string    `json:"ticketId"`
	ResponseText string    `json:"responseText"`
	Role         string    `json:"role"`
	UserEmail    string    `json:"userEmail"`
	AgentEmail   string    `json:"agentEmail"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewReplyResponse maps a reply with explicit from/to emails.
func NewReplyResponse(reply *domain.TicketReply, from, to string) ReplyResponse {
	return ReplyResponse{
		ResponseID:   reply.ID,
		TicketID:     reply.TicketID,
		ResponseText: reply.ResponseText,
		Role:         string(reply.Role),
		UserEmail:    orNoEmail(from),
		AgentEmail:   orNoEmail(to),
		CreatedAt:    reply.CreatedAt,
	}
}

// NewThreadReplies maps listing rows for the full-thread endpoint: each row
// is attributed to its author, with the ticket's agent as the counterpart.
func NewThreadReplies(listings []repository.ReplyListing, agentEmail string) []ReplyResponse {
	out := make([]ReplyResponse, 0, len(listings))
	for i := range listings {
		listing := listings[i]
		out = append(out, NewReplyResponse(&listing.TicketReply, listing.AuthorEmail, agentEmail))
	}
	return out
}

// NewDetailReplies maps listing rows for the ticket detail endpoint, where
// from/to reflect the viewer's side of the conversation.
func NewDetailReplies(listings []repository.ReplyListing, viewerRole domain.Role, customerEmail, agentEmail string) []ReplyResponse {
	from, to := customerEmail, agentEmail
	if viewerRole == domain.RoleAgent {
		from, to = agentEmail, customerEmail
	}
	out := make([]ReplyResponse, 0, len(listings))
	for i := range listings {
		out = append(out, NewReplyResponse(&listings[i].TicketReply, from, to))
	}
	return out
}
