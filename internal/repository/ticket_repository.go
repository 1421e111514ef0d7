package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TicketFilter captures the visible-ticket query parameters. UserID and Role
// together decide the visibility predicate: customers see tickets they
// raised, agents see tickets assigned to them.
type TicketFilter struct {
	UserID   string
	Role     domain.Role
	Status   *domain.TicketStatus
	Category *domain.TicketCategory
	// CheckBookingOwner adds the postbooking ownership re-check: the linked
	// booking must belong to the requesting user.
	CheckBookingOwner bool
	Limit             int
	Offset            int
}

// TicketListing is a ticket row joined with the party emails needed for
// search output.
type TicketListing struct {
	domain.Ticket
	CustomerEmail string
	AgentEmail    *string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListVisible(ctx context.Context, filter TicketFilter) ([]TicketListing, error)
	CountByStatus(ctx context.Context, userID string, role domain.Role, category *domain.TicketCategory) (map[domain.TicketStatus]int64, error)
	Resolve(ctx context.Context, id string, at time.Time) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (customer_user_id, agent_user_id, booking_id, category, description, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.CustomerUserID,
		ticket.AgentUserID,
		ticket.BookingID,
		ticket.Category,
		ticket.Description,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, customer_user_id, agent_user_id, booking_id, category, description,
               status, created_at, updated_at, resolved_at
        FROM tickets WHERE id=$1`

	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.CustomerUserID,
		&ticket.AgentUserID,
		&ticket.BookingID,
		&ticket.Category,
		&ticket.Description,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListVisible(ctx context.Context, filter TicketFilter) ([]TicketListing, error) {
	base := `SELECT t.id, t.customer_user_id, t.agent_user_id, t.booking_id, t.category,
                    t.description, t.status, t.created_at, t.updated_at, t.resolved_at,
                    cu.email, au.email
             FROM tickets t
             JOIN users cu ON cu.id = t.customer_user_id
             LEFT JOIN users au ON au.id = t.agent_user_id`

	clauses := []string{}
	args := []any{}

	args = append(args, filter.UserID)
	if filter.Role == domain.RoleAgent {
		clauses = append(clauses, fmt.Sprintf("t.agent_user_id=$%d", len(args)))
	} else {
		clauses = append(clauses, fmt.Sprintf("t.customer_user_id=$%d", len(args)))
	}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("t.status=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("t.category=$%d", len(args)))
	}
	if filter.CheckBookingOwner {
		args = append(args, filter.UserID)
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM bookings b WHERE b.id = t.booking_id AND b.owner_user_id=$%d)", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC, t.id LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTicketListings(rows)
}

func (r *ticketRepository) CountByStatus(ctx context.Context, userID string, role domain.Role, category *domain.TicketCategory) (map[domain.TicketStatus]int64, error) {
	ownerCol := "customer_user_id"
	if role == domain.RoleAgent {
		ownerCol = "agent_user_id"
	}

	args := []any{userID}
	query := fmt.Sprintf(`SELECT status, COUNT(*) FROM tickets WHERE %s=$1`, ownerCol)
	if category != nil {
		args = append(args, *category)
		query += fmt.Sprintf(" AND category=$%d", len(args))
	}
	query += " GROUP BY status"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[domain.TicketStatus]int64{}
	for rows.Next() {
		var status domain.TicketStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// Resolve flips an ACTIVE ticket to RESOLVED. The status predicate makes the
// transition one-way even under concurrent resolves.
func (r *ticketRepository) Resolve(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE tickets SET status=$1, resolved_at=$2, updated_at=NOW()
        WHERE id=$3 AND status=$4`
	cmd, err := r.pool.Exec(ctx, query, domain.TicketStatusResolved, at, id, domain.TicketStatusActive)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTicketListings(rows pgx.Rows) ([]TicketListing, error) {
	var result []TicketListing
	for rows.Next() {
		var listing TicketListing
		if err := rows.Scan(
			&listing.ID,
			&listing.CustomerUserID,
			&listing.AgentUserID,
			&listing.BookingID,
			&listing.Category,
			&listing.Description,
			&listing.Status,
			&listing.CreatedAt,
			&listing.UpdatedAt,
			&listing.ResolvedAt,
			&listing.CustomerEmail,
			&listing.AgentEmail,
		); err != nil {
			return nil, err
		}
		result = append(result, listing)
	}
	return result, rows.Err()
}
