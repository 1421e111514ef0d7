package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ReplyListing is a reply row joined with its author's email for output
// projection.
type ReplyListing struct {
	domain.TicketReply
	AuthorEmail string
}

// TicketReplyRepository manages ticket thread replies.
type TicketReplyRepository interface {
	Create(ctx context.Context, reply *domain.TicketReply) error
	GetByID(ctx context.Context, id string) (*domain.TicketReply, error)
	Update(ctx context.Context, reply *domain.TicketReply) error
	Delete(ctx context.Context, id string) error
	ListByTicket(ctx context.Context, ticketID string) ([]ReplyListing, error)
	ListByTicketPaged(ctx context.Context, ticketID string, limit, offset int) ([]ReplyListing, int64, error)
}

type ticketReplyRepository struct {
	pool *pgxpool.Pool
}

// NewTicketReplyRepository instantiates the repository.
func NewTicketReplyRepository(pool *pgxpool.Pool) TicketReplyRepository {
	return &ticketReplyRepository{pool: pool}
}

func (r *ticketReplyRepository) Create(ctx context.Context, reply *domain.TicketReply) error {
	const query = `
        INSERT INTO ticket_replies (ticket_id, author_user_id, role, response_text)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		reply.TicketID,
		reply.AuthorUserID,
		reply.Role,
		reply.ResponseText,
	).Scan(&reply.ID, &reply.CreatedAt, &reply.UpdatedAt)
}

func (r *ticketReplyRepository) GetByID(ctx context.Context, id string) (*domain.TicketReply, error) {
	const query = `
        SELECT id, ticket_id, author_user_id, role, response_text, created_at, updated_at
        FROM ticket_replies WHERE id=$1`

	var reply domain.TicketReply
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&reply.ID,
		&reply.TicketID,
		&reply.AuthorUserID,
		&reply.Role,
		&reply.ResponseText,
		&reply.CreatedAt,
		&reply.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (r *ticketReplyRepository) Update(ctx context.Context, reply *domain.TicketReply) error {
	const query = `
        UPDATE ticket_replies SET response_text=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, reply.ResponseText, reply.ID).Scan(&reply.UpdatedAt)
}

func (r *ticketReplyRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_replies WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketReplyRepository) ListByTicket(ctx context.Context, ticketID string) ([]ReplyListing, error) {
	const query = `
        SELECT r.id, r.ticket_id, r.author_user_id, r.role, r.response_text,
               r.created_at, r.updated_at, u.email
        FROM ticket_replies r
        JOIN users u ON u.id = r.author_user_id
        WHERE r.ticket_id=$1
        ORDER BY r.created_at ASC, r.id`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReplyListings(rows)
}

func (r *ticketReplyRepository) ListByTicketPaged(ctx context.Context, ticketID string, limit, offset int) ([]ReplyListing, int64, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM ticket_replies WHERE ticket_id=$1`, ticketID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
        SELECT r.id, r.ticket_id, r.author_user_id, r.role, r.response_text,
               r.created_at, r.updated_at, u.email
        FROM ticket_replies r
        JOIN users u ON u.id = r.author_user_id
        WHERE r.ticket_id=$1
        ORDER BY r.created_at ASC, r.id
        LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, ticketID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	listings, err := scanReplyListings(rows)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func scanReplyListings(rows pgx.Rows) ([]ReplyListing, error) {
	var result []ReplyListing
	for rows.Next() {
		var listing ReplyListing
		if err := rows.Scan(
			&listing.ID,
			&listing.TicketID,
			&listing.AuthorUserID,
			&listing.Role,
			&listing.ResponseText,
			&listing.CreatedAt,
			&listing.UpdatedAt,
			&listing.AuthorEmail,
		); err != nil {
			return nil, err
		}
		result = append(result, listing)
	}
	return result, rows.Err()
}
