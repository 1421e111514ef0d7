package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
)

func TestCreateTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("prebooking ticket without booking", func(t *testing.T) {
		f := newFixture(t)
		customer := f.newUser(t, "cust@example.com", domain.RoleCustomer)
		agent := f.newUser(t, "agent@example.com", domain.RoleAgent)
		rec := recordEvents(f.dispatcher, events.EventTicketCreated, events.EventTicketAssigned)

		ticket, err := f.tickets.CreateTicket(ctx, TicketCreateInput{
			UserID:      customer.ID,
			Description: "cannot log in",
			Role:        "CUSTOMER",
		})
		require.NoError(t, err)

		assert.Equal(t, domain.CategoryPrebooking, ticket.Category)
		assert.Equal(t, domain.TicketStatusActive, ticket.Status)
		assert.Nil(t, ticket.BookingID)
		require.NotNil(t, ticket.AgentUserID)
		assert.Equal(t, agent.ID, *ticket.AgentUserID)

		require.Len(t, rec.ofType(events.EventTicketCreated), 1)
		require.Len(t, rec.ofType(events.EventTicketAssigned), 1)
		created := rec.ofType(events.EventTicketCreated)[0]
		payload, ok := created.Payload.(events.TicketCreatedPayload)
		require.True(t, ok)
		assert.Equal(t, customer.ID, payload.CustomerUserID)
		assert.Equal(t, agent.ID, payload.AgentUserID)
	})

	t.Run("postbooking ticket from owned booking", func(t *testing.T) {
		f := newFixture(t)
		customer := f.newUser(t, "cust@example.com", domain.RoleCustomer)
		f.newUser(t, "agent@example.com", domain.RoleAgent)
		booking := f.newBooking(t, customer.ID)

		ticket, err := f.tickets.CreateTicket(ctx, TicketCreateInput{
			UserID:      customer.ID,
			BookingID:   &booking.ID,
			Description: "booking issue",
			Role:        "CUSTOMER",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.CategoryPostbooking, ticket.Category)
		require.NotNil(t, ticket.BookingID)
		assert.Equal(t, booking.ID, *ticket.BookingID)
	})

	t.Run("foreign booking is forbidden", func(t *testing.T) {
		f := newFixture(t)
		customer := f.newUser(t, "cust@example.com", domain.RoleCustomer)
		stranger := f.newUser(t, "other@example.com", domain.RoleCustomer)
		f.newUser(t, "agent@example.com", domain.RoleAgent)
		booking := f.newBooking(t, stranger.ID)

		_, err := f.tickets.CreateTicket(ctx, TicketCreateInput{
			UserID:      customer.ID,
			BookingID:   &booking.ID,
			Description: "booking issue",
			Role:        "CUSTOMER",
		})
		requireDomainError(t, err, http.StatusForbidden, "FORBIDDEN")
	})

	t.Run("unknown booking is not found", func(t *testing.T) {
		f := newFixture(t)
		customer := f.newUser(t, "cust@example.com", domain.RoleCustomer)
		f.newUser(t, "agent@example.com", domain.RoleAgent)
		missing := "c2b8f9e0-0000-0000-0000-000000000000"

		_, err := f.tickets.CreateTicket(ctx, TicketCreateInput{
			UserID:      customer.ID,
			BookingID:   &missing,
			Description: "booking issue",
			Role:        "CUSTOMER",
		})
		domainErr := requireDomainError(t, err, http.StatusNotFound, "NOT_FOUND")
		assert.Equal(t, "Booking not found", domainErr.Message)
	})

	t.Run("agents cannot create tickets", func(t *testing.T) {
		f := newFixture(t)
		agent := f.newUser(t, "agent@example.com", domain.RoleAgent)

		_, err := f.tickets.CreateTicket(ctx, TicketCreateInput{
			UserID:      agent.ID,
			Description: "should fail",
			Role:        "AGENT",
		})
		requireDomainError(t, err, http.StatusForbidden, "FORBIDDEN")
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.tickets.CreateTicket(ctx, TicketCreateInput{
			UserID:      "missing",
			Description: "hi",
			Role:        "CUSTOMER",
		})
		domainErr := requireDomainError(t, err, http.StatusNotFound, "NOT_FOUND")
		assert.Equal(t, "User not found", domainErr.Message)
	})

	t.Run("empty description is rejected", func(t *testing.T) {
		f := newFixture(t)
		customer := f.newUser(t, "cust@example.com", domain.RoleCustomer)
		f.newUser(t, "agent@example.com", domain.RoleAgent)

		_, err := f.tickets.CreateTicket(ctx, TicketCreateInput{
			UserID:      customer.ID,
			Description: "   ",
			Role:        "CUSTOMER",
		})
		requireDomainError(t, err, http.StatusBadRequest, "VALIDATION_FAILED")
	})

	t.Run("fails without agents", func(t *testing.T) {
		f := newFixture(t)
		customer := f.newUser(t, "cust@example.com", domain.RoleCustomer)

		_, err := f.tickets.CreateTicket(ctx, TicketCreateInput{
			UserID:      customer.ID,
			Description: "no agents yet",
			Role:        "CUSTOMER",
		})
		requireDomainError(t, err, http.StatusInternalServerError, "NO_AGENTS_AVAILABLE")
	})
}

func TestSearchTickets(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, *domain.User, *domain.User) {
		f := newFixture(t)
		customer := f.newUser(t, "cust@example.com", domain.RoleCustomer)
		agent := f.newUser(t, "agent@example.com", domain.RoleAgent)
		booking := f.newBooking(t, customer.ID)
		f.newTicket(t, customer.ID, nil)
		f.newTicket(t, customer.ID, &booking.ID)
		return f, customer, agent
	}

	t.Run("no category returns both buckets", func(t *testing.T) {
		f, customer, _ := setup(t)

		buckets, err := f.tickets.SearchTickets(ctx, customer.ID, "CUSTOMER", "ALL", "", 0, 10)
		require.NoError(t, err)
		require.Contains(t, buckets, BucketPrebooking)
		require.Contains(t, buckets, BucketPostbooking)
		assert.Len(t, buckets[BucketPrebooking], 1)
		assert.Len(t, buckets[BucketPostbooking], 1)
	})

	t.Run("category filter returns one bucket", func(t *testing.T) {
		f, customer, _ := setup(t)

		buckets, err := f.tickets.SearchTickets(ctx, customer.ID, "CUSTOMER", "ALL", "POSTBOOKING", 0, 10)
		require.NoError(t, err)
		assert.NotContains(t, buckets, BucketPrebooking)
		assert.Len(t, buckets[BucketPostbooking], 1)
	})

	t.Run("agent visibility covers assigned tickets", func(t *testing.T) {
		f, _, agent := setup(t)

		buckets, err := f.tickets.SearchTickets(ctx, agent.ID, "AGENT", "ALL", "", 0, 10)
		require.NoError(t, err)
		assert.Len(t, buckets[BucketPrebooking], 1)
		assert.Len(t, buckets[BucketPostbooking], 1)
	})

	t.Run("status filter", func(t *testing.T) {
		f, customer, agent := setup(t)
		buckets, err := f.tickets.SearchTickets(ctx, customer.ID, "CUSTOMER", "ALL", "", 0, 10)
		require.NoError(t, err)
		ticketID := buckets[BucketPrebooking][0].ID

		_, err = f.replies.ResolveTicket(ctx, ticketID, agent.ID)
		require.NoError(t, err)

		buckets, err = f.tickets.SearchTickets(ctx, customer.ID, "CUSTOMER", "RESOLVED", "", 0, 10)
		require.NoError(t, err)
		assert.Len(t, buckets[BucketPrebooking], 1)
		assert.Empty(t, buckets[BucketPostbooking])
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		f, customer, _ := setup(t)
		_, err := f.tickets.SearchTickets(ctx, customer.ID, "ADMIN", "ALL", "", 0, 10)
		requireDomainError(t, err, http.StatusBadRequest, "VALIDATION_FAILED")
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		f, customer, _ := setup(t)
		_, err := f.tickets.SearchTickets(ctx, customer.ID, "CUSTOMER", "PENDING", "", 0, 10)
		requireDomainError(t, err, http.StatusBadRequest, "VALIDATION_FAILED")
	})

	t.Run("invalid category rejected", func(t *testing.T) {
		f, customer, _ := setup(t)
		_, err := f.tickets.SearchTickets(ctx, customer.ID, "CUSTOMER", "ALL", "MIDBOOKING", 0, 10)
		requireDomainError(t, err, http.StatusBadRequest, "VALIDATION_FAILED")
	})
}

func TestGetTicketDetail(t *testing.T) {
	ctx := context.Background()

	t.Run("returns paginated thread with party emails", func(t *testing.T) {
		f := newFixture(t)
		customer := f.newUser(t, "cust@example.com", domain.RoleCustomer)
		agent := f.newUser(t, "agent@example.com", domain.RoleAgent)
		ticket := f.newTicket(t, customer.ID, nil)

		for i := 0; i < 5; i++ {
			_, err := f.replies.CreateReply(ctx, ticket.ID, customer.ID, "CUSTOMER", "ping")
			require.NoError(t, err)
		}

		detail, err := f.tickets.GetTicketDetail(ctx, customer.ID, ticket.ID, 0, 2)
		require.NoError(t, err)
		assert.Equal(t, ticket.ID, detail.Ticket.ID)
		assert.Equal(t, "cust@example.com", detail.CustomerEmail)
		assert.Equal(t, "agent@example.com", detail.AgentEmail)
		assert.Equal(t, domain.RoleCustomer, detail.ViewerRole)
		assert.Len(t, detail.Replies, 2)
		assert.Equal(t, 3, detail.TotalPages)

		agentView, err := f.tickets.GetTicketDetail(ctx, agent.ID, ticket.ID, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAgent, agentView.ViewerRole)
		assert.Len(t, agentView.Replies, 1)
	})

	t.Run("strangers are forbidden", func(t *testing.T) {
		f := newFixture(t)
		customer := f.newUser(t, "cust@example.com", domain.RoleCustomer)
		f.newUser(t, "agent@example.com", domain.RoleAgent)
		stranger := f.newUser(t, "other@example.com", domain.RoleCustomer)
		ticket := f.newTicket(t, customer.ID, nil)

		_, err := f.tickets.GetTicketDetail(ctx, stranger.ID, ticket.ID, 0, 10)
		requireDomainError(t, err, http.StatusForbidden, "FORBIDDEN")
	})

	t.Run("missing ticket is not found", func(t *testing.T) {
		f := newFixture(t)
		customer := f.newUser(t, "cust@example.com", domain.RoleCustomer)

		_, err := f.tickets.GetTicketDetail(ctx, customer.ID, "missing", 0, 10)
		domainErr := requireDomainError(t, err, http.StatusNotFound, "NOT_FOUND")
		assert.Equal(t, "Ticket not found", domainErr.Message)
	})
}

func TestCountActiveResolved(t *testing.T) {
	ctx := context.Background()

	t.Run("zero filled counts", func(t *testing.T) {
		f := newFixture(t)
		customer := f.newUser(t, "cust@example.com", domain.RoleCustomer)

		counts, err := f.tickets.CountActiveResolved(ctx, customer.ID, "CUSTOMER", "")
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"ACTIVE": 0, "RESOLVED": 0}, counts)
	})

	t.Run("counts by category", func(t *testing.T) {
		f := newFixture(t)
		customer := f.newUser(t, "cust@example.com", domain.RoleCustomer)
		agent := f.newUser(t, "agent@example.com", domain.RoleAgent)
		booking := f.newBooking(t, customer.ID)
		pre := f.newTicket(t, customer.ID, nil)
		f.newTicket(t, customer.ID, &booking.ID)

		_, err := f.replies.ResolveTicket(ctx, pre.ID, agent.ID)
		require.NoError(t, err)

		counts, err := f.tickets.CountActiveResolved(ctx, customer.ID, "CUSTOMER", "ALL")
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"ACTIVE": 1, "RESOLVED": 1}, counts)

		counts, err = f.tickets.CountActiveResolved(ctx, customer.ID, "CUSTOMER", "PREBOOKING")
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"ACTIVE": 0, "RESOLVED": 1}, counts)

		counts, err = f.tickets.CountActiveResolved(ctx, agent.ID, "AGENT", "POSTBOOKING")
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"ACTIVE": 1, "RESOLVED": 0}, counts)
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.tickets.CountActiveResolved(ctx, "someone", "ROOT", "")
		requireDomainError(t, err, http.StatusBadRequest, "VALIDATION_FAILED")
	})
}

func TestListTicketReplies(t *testing.T) {
	ctx := context.Background()

	t.Run("returns thread with agent counterpart", func(t *testing.T) {
		f := newFixture(t)
		customer := f.newUser(t, "cust@example.com", domain.RoleCustomer)
		f.newUser(t, "agent@example.com", domain.RoleAgent)
		ticket := f.newTicket(t, customer.ID, nil)

		_, err := f.replies.CreateReply(ctx, ticket.ID, customer.ID, "CUSTOMER", "hello")
		require.NoError(t, err)

		thread, err := f.tickets.ListTicketReplies(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, "agent@example.com", thread.AgentEmail)
		require.Len(t, thread.Replies, 1)
		assert.Equal(t, "cust@example.com", thread.Replies[0].AuthorEmail)
	})

	t.Run("missing ticket is not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.tickets.ListTicketReplies(ctx, "missing")
		requireDomainError(t, err, http.StatusNotFound, "NOT_FOUND")
	})
}
