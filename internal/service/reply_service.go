package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

const previewLimit = 64

// ReplyService handles ticket thread replies and ticket resolution.
type ReplyService struct {
	users      repository.UserRepository
	tickets    repository.TicketRepository
	replies    repository.TicketReplyRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ReplyResult pairs a stored reply with the author and counterpart emails
// used for rendering.
type ReplyResult struct {
	Reply            *domain.TicketReply
	AuthorEmail      string
	CounterpartEmail string
}

// NewReplyService constructs the service.
func NewReplyService(
	users repository.UserRepository,
	tickets repository.TicketRepository,
	replies repository.TicketReplyRepository,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
) *ReplyService {
	return &ReplyService{
		users:      users,
		tickets:    tickets,
		replies:    replies,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// CreateReply posts a reply on an active ticket. The author must be either
// the ticket's customer or its assigned agent, acting in the stated role.
func (s *ReplyService) CreateReply(ctx context.Context, ticketID, userID, role, responseText string) (*ReplyResult, error) {
	parsedRole, ok := domain.ParseRole(role)
	if !ok {
		return nil, apperrors.NewValidationError("Role must be 'CUSTOMER' or 'AGENT'", nil)
	}
	text := strings.TrimSpace(responseText)
	if text == "" {
		return nil, apperrors.NewValidationError("responseText required", nil)
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParty(ticket, user, parsedRole); err != nil {
		return nil, err
	}

	reply := &domain.TicketReply{
		TicketID:     ticket.ID,
		AuthorUserID: user.ID,
		Role:         parsedRole,
		ResponseText: text,
	}
	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("reply created",
		zap.String("ticket_id", ticket.ID),
		zap.String("reply_id", reply.ID),
		zap.String("role", string(parsedRole)),
	)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventReplyAdded,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: user.ID, Role: parsedRole},
		Payload: events.ReplyAddedPayload{
			ReplyID:     reply.ID,
			AuthorRole:  parsedRole,
			BodyPreview: preview(text),
		},
	})

	return &ReplyResult{
		Reply:            reply,
		AuthorEmail:      user.Email,
		CounterpartEmail: s.counterpartEmail(ctx, ticket, parsedRole),
	}, nil
}

// UpdateReply edits a reply's text. Only the reply's author may edit it.
func (s *ReplyService) UpdateReply(ctx context.Context, ticketID, replyID, userID, updatedText string) (*domain.TicketReply, error) {
	text := strings.TrimSpace(updatedText)
	if text == "" {
		return nil, apperrors.NewValidationError("updatedText required", nil)
	}

	reply, err := s.getOwnedReply(ctx, ticketID, replyID, userID)
	if err != nil {
		return nil, err
	}

	reply.ResponseText = text
	if err := s.replies.Update(ctx, reply); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventReplyUpdated,
		TicketID: ticketID,
		Actor:    events.Actor{UserID: userID, Role: reply.Role},
		Payload:  events.ReplyUpdatedPayload{ReplyID: reply.ID},
	})
	return reply, nil
}

// DeleteReply removes a reply. Only the reply's author may delete it.
func (s *ReplyService) DeleteReply(ctx context.Context, ticketID, replyID, userID string) error {
	reply, err := s.getOwnedReply(ctx, ticketID, replyID, userID)
	if err != nil {
		return err
	}

	if err := s.replies.Delete(ctx, reply.ID); err != nil {
		return apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventReplyDeleted,
		TicketID: ticketID,
		Actor:    events.Actor{UserID: userID, Role: reply.Role},
		Payload:  events.ReplyDeletedPayload{ReplyID: reply.ID},
	})
	return nil
}

// ResolveTicket marks a ticket RESOLVED. Only the assigned agent may resolve
// it, and resolving an already resolved ticket is rejected.
func (s *ReplyService) ResolveTicket(ctx context.Context, ticketID, userID string) (*domain.Ticket, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleAgent {
		return nil, apperrors.NewForbidden("Only an agent can resolve a ticket")
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.AgentUserID == nil || *ticket.AgentUserID != user.ID {
		return nil, apperrors.NewForbidden("User is not authorized to access this ticket")
	}
	if ticket.Status == domain.TicketStatusResolved {
		return nil, apperrors.NewConflict("ticket already resolved", nil)
	}

	resolvedAt := time.Now()
	if err := s.tickets.Resolve(ctx, ticket.ID, resolvedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflict("ticket already resolved", nil)
		}
		return nil, apperrors.MapError(err)
	}
	ticket.Status = domain.TicketStatusResolved
	ticket.ResolvedAt = &resolvedAt

	s.logger.Info("ticket resolved",
		zap.String("ticket_id", ticket.ID),
		zap.String("agent_id", user.ID),
	)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketResolved,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: user.ID, Role: domain.RoleAgent},
		Payload: events.TicketResolvedPayload{
			CustomerUserID: ticket.CustomerUserID,
			AgentUserID:    user.ID,
			Category:       ticket.Category,
			ResolvedAt:     resolvedAt,
		},
	})
	return ticket, nil
}

func (s *ReplyService) getOwnedReply(ctx context.Context, ticketID, replyID, userID string) (*domain.TicketReply, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.getTicket(ctx, ticketID); err != nil {
		return nil, err
	}

	reply, err := s.replies.GetByID(ctx, replyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("Reply not found", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if reply.TicketID != ticketID {
		return nil, apperrors.NewNotFound("Reply not found", nil)
	}
	if reply.AuthorUserID != userID {
		return nil, apperrors.NewForbidden("User is not authorized to modify this reply")
	}
	return reply, nil
}

func (s *ReplyService) authorizeParty(ticket *domain.Ticket, user *domain.User, role domain.Role) error {
	switch role {
	case domain.RoleCustomer:
		if ticket.CustomerUserID != user.ID {
			return apperrors.NewForbidden("User is not authorized to access this ticket")
		}
	case domain.RoleAgent:
		if ticket.AgentUserID == nil || *ticket.AgentUserID != user.ID {
			return apperrors.NewForbidden("User is not authorized to access this ticket")
		}
	}
	return nil
}

func (s *ReplyService) counterpartEmail(ctx context.Context, ticket *domain.Ticket, authorRole domain.Role) string {
	counterpartID := ticket.CustomerUserID
	if authorRole == domain.RoleCustomer {
		if ticket.AgentUserID == nil {
			return ""
		}
		counterpartID = *ticket.AgentUserID
	}
	if counterpart, err := s.users.GetByID(ctx, counterpartID); err == nil {
		return counterpart.Email
	}
	return ""
}

func (s *ReplyService) getUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("User not found", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *ReplyService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("Ticket not found", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *ReplyService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func preview(text string) string {
	if len(text) <= previewLimit {
		return text
	}
	return text[:previewLimit]
}
