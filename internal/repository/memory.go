package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/support-desk/internal/domain"
)

// MemoryStore backs all repositories with in-process maps. It serves two
// jobs: running the service without a POSTGRES_DSN, and exercising the
// service layer in tests. Missing rows surface as pgx.ErrNoRows and duplicate
// emails as a unique-violation PgError so callers handle both backends the
// same way.
type MemoryStore struct {
	mu       sync.RWMutex
	users    []*domain.User
	bookings []*domain.Booking
	tickets  []*domain.Ticket
	replies  []*domain.TicketReply
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Users returns the in-memory UserRepository.
func (s *MemoryStore) Users() UserRepository { return &memoryUserRepo{store: s} }

// Bookings returns the in-memory BookingRepository.
func (s *MemoryStore) Bookings() BookingRepository { return &memoryBookingRepo{store: s} }

// Tickets returns the in-memory TicketRepository.
func (s *MemoryStore) Tickets() TicketRepository { return &memoryTicketRepo{store: s} }

// Replies returns the in-memory TicketReplyRepository.
func (s *MemoryStore) Replies() TicketReplyRepository { return &memoryReplyRepo{store: s} }

func duplicateKeyError(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

type memoryUserRepo struct {
	store *MemoryStore
}

func (r *memoryUserRepo) Create(_ context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.users {
		if existing.Email == user.Email {
			return duplicateKeyError("users_email_key")
		}
	}
	now := time.Now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.store.users = append(r.store.users, &stored)
	return nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, user := range r.store.users {
		if user.ID == id {
			out := *user
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, user := range r.store.users {
		if user.Email == email {
			out := *user
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []domain.User
	for _, user := range r.store.users {
		if user.Role == role {
			result = append(result, *user)
		}
	}
	return result, nil
}

type memoryBookingRepo struct {
	store *MemoryStore
}

func (r *memoryBookingRepo) Create(_ context.Context, booking *domain.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	booking.ID = uuid.NewString()
	booking.CreatedAt = time.Now()

	stored := *booking
	r.store.bookings = append(r.store.bookings, &stored)
	return nil
}

func (r *memoryBookingRepo) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, booking := range r.store.bookings {
		if booking.ID == id {
			out := *booking
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memoryTicketRepo struct {
	store *MemoryStore
}

func (r *memoryTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now

	stored := *ticket
	r.store.tickets = append(r.store.tickets, &stored)
	return nil
}

func (r *memoryTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ticket := r.store.findTicket(id)
	if ticket == nil {
		return nil, pgx.ErrNoRows
	}
	out := *ticket
	return &out, nil
}

func (r *memoryTicketRepo) ListVisible(_ context.Context, filter TicketFilter) ([]TicketListing, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []TicketListing
	// newest first, matching the SQL ORDER BY created_at DESC
	for i := len(r.store.tickets) - 1; i >= 0; i-- {
		ticket := r.store.tickets[i]
		if !r.visible(ticket, filter) {
			continue
		}
		matched = append(matched, r.store.listingFor(ticket))
	}

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *memoryTicketRepo) visible(ticket *domain.Ticket, filter TicketFilter) bool {
	if filter.Role == domain.RoleAgent {
		if ticket.AgentUserID == nil || *ticket.AgentUserID != filter.UserID {
			return false
		}
	} else if ticket.CustomerUserID != filter.UserID {
		return false
	}
	if filter.Status != nil && ticket.Status != *filter.Status {
		return false
	}
	if filter.Category != nil && ticket.Category != *filter.Category {
		return false
	}
	if filter.CheckBookingOwner {
		if ticket.BookingID == nil {
			return false
		}
		owned := false
		for _, booking := range r.store.bookings {
			if booking.ID == *ticket.BookingID && booking.OwnerUserID == filter.UserID {
				owned = true
				break
			}
		}
		if !owned {
			return false
		}
	}
	return true
}

func (r *memoryTicketRepo) CountByStatus(_ context.Context, userID string, role domain.Role, category *domain.TicketCategory) (map[domain.TicketStatus]int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	counts := map[domain.TicketStatus]int64{}
	for _, ticket := range r.store.tickets {
		if role == domain.RoleAgent {
			if ticket.AgentUserID == nil || *ticket.AgentUserID != userID {
				continue
			}
		} else if ticket.CustomerUserID != userID {
			continue
		}
		if category != nil && ticket.Category != *category {
			continue
		}
		counts[ticket.Status]++
	}
	return counts, nil
}

func (r *memoryTicketRepo) Resolve(_ context.Context, id string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ticket := r.store.findTicket(id)
	if ticket == nil || ticket.Status != domain.TicketStatusActive {
		return pgx.ErrNoRows
	}
	resolvedAt := at
	ticket.Status = domain.TicketStatusResolved
	ticket.ResolvedAt = &resolvedAt
	ticket.UpdatedAt = time.Now()
	return nil
}

type memoryReplyRepo struct {
	store *MemoryStore
}

func (r *memoryReplyRepo) Create(_ context.Context, reply *domain.TicketReply) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now()
	reply.ID = uuid.NewString()
	reply.CreatedAt = now
	reply.UpdatedAt = now

	stored := *reply
	r.store.replies = append(r.store.replies, &stored)
	return nil
}

func (r *memoryReplyRepo) GetByID(_ context.Context, id string) (*domain.TicketReply, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, reply := range r.store.replies {
		if reply.ID == id {
			out := *reply
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryReplyRepo) Update(_ context.Context, reply *domain.TicketReply) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, stored := range r.store.replies {
		if stored.ID == reply.ID {
			stored.ResponseText = reply.ResponseText
			stored.UpdatedAt = time.Now()
			reply.UpdatedAt = stored.UpdatedAt
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *memoryReplyRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i, stored := range r.store.replies {
		if stored.ID == id {
			r.store.replies = append(r.store.replies[:i], r.store.replies[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *memoryReplyRepo) ListByTicket(_ context.Context, ticketID string) ([]ReplyListing, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []ReplyListing
	for _, reply := range r.store.replies {
		if reply.TicketID == ticketID {
			result = append(result, r.store.replyListingFor(reply))
		}
	}
	return result, nil
}

func (r *memoryReplyRepo) ListByTicketPaged(_ context.Context, ticketID string, limit, offset int) ([]ReplyListing, int64, error) {
	all, err := r.ListByTicket(context.Background(), ticketID)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(all))

	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (s *MemoryStore) findTicket(id string) *domain.Ticket {
	for _, ticket := range s.tickets {
		if ticket.ID == id {
			return ticket
		}
	}
	return nil
}

func (s *MemoryStore) emailOf(userID string) string {
	for _, user := range s.users {
		if user.ID == userID {
			return user.Email
		}
	}
	return ""
}

func (s *MemoryStore) listingFor(ticket *domain.Ticket) TicketListing {
	listing := TicketListing{Ticket: *ticket, CustomerEmail: s.emailOf(ticket.CustomerUserID)}
	if ticket.AgentUserID != nil {
		email := s.emailOf(*ticket.AgentUserID)
		listing.AgentEmail = &email
	}
	return listing
}

func (s *MemoryStore) replyListingFor(reply *domain.TicketReply) ReplyListing {
	return ReplyListing{TicketReply: *reply, AuthorEmail: s.emailOf(reply.AuthorUserID)}
}
