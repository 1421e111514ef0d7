package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/cache"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// Bucket names used in filtered search output.
const (
	BucketPrebooking  = "PrebookingTickets"
	BucketPostbooking = "PostbookingTickets"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	users      repository.UserRepository
	bookings   repository.BookingRepository
	tickets    repository.TicketRepository
	replies    repository.TicketReplyRepository
	assigner   *AssignmentService
	counts     *cache.CountCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	UserRepo    repository.UserRepository
	BookingRepo repository.BookingRepository
	TicketRepo  repository.TicketRepository
	ReplyRepo   repository.TicketReplyRepository
	Assigner    *AssignmentService
	CountCache  *cache.CountCache
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// TicketCreateInput describes the ticket creation payload.
type TicketCreateInput struct {
	UserID      string
	BookingID   *string
	Description string
	Role        string
}

// TicketDetail is the projection returned for a single-ticket lookup with a
// paginated reply thread.
type TicketDetail struct {
	Ticket        *domain.Ticket
	CustomerEmail string
	AgentEmail    string
	ViewerRole    domain.Role
	Replies       []repository.ReplyListing
	TotalPages    int
}

// TicketReplies is the full reply thread of one ticket.
type TicketReplies struct {
	Ticket     *domain.Ticket
	AgentEmail string
	Replies    []repository.ReplyListing
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		users:      deps.UserRepo,
		bookings:   deps.BookingRepo,
		tickets:    deps.TicketRepo,
		replies:    deps.ReplyRepo,
		assigner:   deps.Assigner,
		counts:     deps.CountCache,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// CreateTicket opens a ticket for a customer and assigns an agent. Tickets
// referencing a booking are POSTBOOKING and require booking ownership;
// tickets without one are PREBOOKING.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("User not found", nil)
		}
		return nil, apperrors.MapError(err)
	}

	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return nil, apperrors.NewValidationError("Role must be 'CUSTOMER' or 'AGENT'", nil)
	}
	if role != domain.RoleCustomer {
		return nil, apperrors.NewForbidden("Only a customer can create a ticket")
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}

	ticket := &domain.Ticket{
		CustomerUserID: user.ID,
		Category:       domain.CategoryPrebooking,
		Description:    description,
		Status:         domain.TicketStatusActive,
	}

	if input.BookingID != nil && *input.BookingID != "" {
		booking, err := s.bookings.GetByID(ctx, *input.BookingID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("Booking not found", nil)
			}
			return nil, apperrors.MapError(err)
		}
		if booking.OwnerUserID != user.ID {
			return nil, apperrors.NewForbidden("User is not authorized to access this booking")
		}
		ticket.BookingID = &booking.ID
		ticket.Category = domain.CategoryPostbooking
	}

	agent, err := s.assigner.NextAgent(ctx)
	if err != nil {
		return nil, err
	}
	ticket.AgentUserID = &agent.ID

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("customer_id", user.ID),
		zap.String("agent_id", agent.ID),
		zap.String("category", string(ticket.Category)),
	)

	actor := events.Actor{UserID: user.ID, Role: domain.RoleCustomer}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketCreatedPayload{
			CustomerUserID: ticket.CustomerUserID,
			AgentUserID:    agent.ID,
			Category:       ticket.Category,
			BookingID:      ticket.BookingID,
		},
	})
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload:  events.TicketAssignedPayload{AgentUserID: agent.ID},
	})

	return ticket, nil
}

// SearchTickets resolves the tickets visible to a (userID, role) pair,
// bucketed by booking category. An empty category returns both buckets; a
// named category returns only that bucket, with the postbooking ownership
// re-check applied.
func (s *TicketService) SearchTickets(ctx context.Context, userID, role, status, category string, page, size int) (map[string][]repository.TicketListing, error) {
	parsedRole, ok := domain.ParseRole(role)
	if !ok {
		return nil, apperrors.NewValidationError("Invalid role. Role must be 'AGENT' or 'CUSTOMER'.", nil)
	}

	var statusFilter *domain.TicketStatus
	if !strings.EqualFold(strings.TrimSpace(status), cache.CategoryAll) && strings.TrimSpace(status) != "" {
		parsedStatus, ok := domain.ParseTicketStatus(status)
		if !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("Invalid status: %s", status), nil)
		}
		statusFilter = &parsedStatus
	}

	filter := repository.TicketFilter{
		UserID: userID,
		Role:   parsedRole,
		Status: statusFilter,
		Limit:  normalizeSize(size),
		Offset: normalizePage(page) * normalizeSize(size),
	}

	result := map[string][]repository.TicketListing{}

	if strings.TrimSpace(category) == "" {
		for bucket, cat := range map[string]domain.TicketCategory{
			BucketPrebooking:  domain.CategoryPrebooking,
			BucketPostbooking: domain.CategoryPostbooking,
		} {
			catFilter := filter
			cat := cat
			catFilter.Category = &cat
			listings, err := s.tickets.ListVisible(ctx, catFilter)
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			result[bucket] = listings
		}
		return result, nil
	}

	parsedCategory, ok := domain.ParseTicketCategory(category)
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("Invalid booking category: %s", category), nil)
	}
	filter.Category = &parsedCategory
	filter.CheckBookingOwner = parsedCategory == domain.CategoryPostbooking

	listings, err := s.tickets.ListVisible(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if parsedCategory == domain.CategoryPrebooking {
		result[BucketPrebooking] = listings
	} else {
		result[BucketPostbooking] = listings
	}
	return result, nil
}

// GetTicketDetail fetches one ticket with a paginated reply thread. Only the
// ticket's customer or assigned agent may view it.
func (s *TicketService) GetTicketDetail(ctx context.Context, userID, ticketID string, page, size int) (*TicketDetail, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("User not found", nil)
		}
		return nil, apperrors.MapError(err)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !isTicketParty(ticket, user.ID) {
		return nil, apperrors.NewForbidden("User is not authorized to access this ticket")
	}

	pageSize := normalizeSize(size)
	replies, total, err := s.replies.ListByTicketPaged(ctx, ticket.ID, pageSize, normalizePage(page)*pageSize)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	detail := &TicketDetail{
		Ticket:     ticket,
		ViewerRole: user.Role,
		Replies:    replies,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
	detail.CustomerEmail, detail.AgentEmail = s.partyEmails(ctx, ticket)
	return detail, nil
}

// ListTicketReplies returns the complete reply thread of a ticket.
func (s *TicketService) ListTicketReplies(ctx context.Context, ticketID string) (*TicketReplies, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	replies, err := s.replies.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	_, agentEmail := s.partyEmails(ctx, ticket)
	return &TicketReplies{Ticket: ticket, AgentEmail: agentEmail, Replies: replies}, nil
}

// CountActiveResolved returns {ACTIVE, RESOLVED} ticket counts for the
// (userID, role, category) triple, cache-aside with evict-on-write keeping
// entries current between TTL expiries.
func (s *TicketService) CountActiveResolved(ctx context.Context, userID, role, category string) (map[string]int64, error) {
	parsedRole, ok := domain.ParseRole(role)
	if !ok {
		return nil, apperrors.NewValidationError("Invalid role. Role must be 'AGENT' or 'CUSTOMER'.", nil)
	}

	var categoryFilter *domain.TicketCategory
	categoryKey := cache.CategoryAll
	trimmed := strings.TrimSpace(category)
	if trimmed != "" && !strings.EqualFold(trimmed, cache.CategoryAll) {
		parsedCategory, ok := domain.ParseTicketCategory(trimmed)
		if !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("Invalid booking category: %s", category), nil)
		}
		categoryFilter = &parsedCategory
		categoryKey = string(parsedCategory)
	}

	if counts, ok := s.counts.Get(ctx, userID, parsedRole, categoryKey); ok {
		return counts, nil
	}

	byStatus, err := s.tickets.CountByStatus(ctx, userID, parsedRole, categoryFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	counts := map[string]int64{
		string(domain.TicketStatusActive):   byStatus[domain.TicketStatusActive],
		string(domain.TicketStatusResolved): byStatus[domain.TicketStatusResolved],
	}

	s.counts.Set(ctx, userID, parsedRole, categoryKey, counts)
	return counts, nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("Ticket not found", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) partyEmails(ctx context.Context, ticket *domain.Ticket) (customerEmail, agentEmail string) {
	if customer, err := s.users.GetByID(ctx, ticket.CustomerUserID); err == nil {
		customerEmail = customer.Email
	}
	if ticket.AgentUserID != nil {
		if agent, err := s.users.GetByID(ctx, *ticket.AgentUserID); err == nil {
			agentEmail = agent.Email
		}
	}
	return customerEmail, agentEmail
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
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

func isTicketParty(ticket *domain.Ticket, userID string) bool {
	if ticket.CustomerUserID == userID {
		return true
	}
	return ticket.AgentUserID != nil && *ticket.AgentUserID == userID
}

func normalizePage(page int) int {
	if page < 0 {
		return 0
	}
	return page
}

func normalizeSize(size int) int {
	if size <= 0 {
		return 10
	}
	return size
}
