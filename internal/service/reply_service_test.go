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

func TestCreateReply(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, *domain.User, *domain.User, *domain.Ticket) {
		f := newFixture(t)
		customer := f.newUser(t, "cust@example.com", domain.RoleCustomer)
		agent := f.newUser(t, "agent@example.com", domain.RoleAgent)
		ticket := f.newTicket(t, customer.ID, nil)
		return f, customer, agent, ticket
	}

	t.Run("customer reply addressed to agent", func(t *testing.T) {
		f, customer, _, ticket := setup(t)
		rec := recordEvents(f.dispatcher, events.EventReplyAdded)

		result, err := f.replies.CreateReply(ctx, ticket.ID, customer.ID, "CUSTOMER", "my booking is wrong")
		require.NoError(t, err)

		assert.Equal(t, ticket.ID, result.Reply.TicketID)
		assert.Equal(t, domain.RoleCustomer, result.Reply.Role)
		assert.Equal(t, "cust@example.com", result.AuthorEmail)
		assert.Equal(t, "agent@example.com", result.CounterpartEmail)
		require.Len(t, rec.all(), 1)
	})

	t.Run("agent reply addressed to customer", func(t *testing.T) {
		f, _, agent, ticket := setup(t)

		result, err := f.replies.CreateReply(ctx, ticket.ID, agent.ID, "AGENT", "looking into it")
		require.NoError(t, err)
		assert.Equal(t, "agent@example.com", result.AuthorEmail)
		assert.Equal(t, "cust@example.com", result.CounterpartEmail)
	})

	t.Run("unassigned agent is forbidden", func(t *testing.T) {
		f, _, _, ticket := setup(t)
		outsider := f.newUser(t, "agent2@example.com", domain.RoleAgent)

		_, err := f.replies.CreateReply(ctx, ticket.ID, outsider.ID, "AGENT", "let me jump in")
		requireDomainError(t, err, http.StatusForbidden, "FORBIDDEN")
	})

	t.Run("foreign customer is forbidden", func(t *testing.T) {
		f, _, _, ticket := setup(t)
		outsider := f.newUser(t, "cust2@example.com", domain.RoleCustomer)

		_, err := f.replies.CreateReply(ctx, ticket.ID, outsider.ID, "CUSTOMER", "me too")
		requireDomainError(t, err, http.StatusForbidden, "FORBIDDEN")
	})

	t.Run("validates role and text", func(t *testing.T) {
		f, customer, _, ticket := setup(t)

		_, err := f.replies.CreateReply(ctx, ticket.ID, customer.ID, "BOSS", "hi")
		requireDomainError(t, err, http.StatusBadRequest, "VALIDATION_FAILED")

		_, err = f.replies.CreateReply(ctx, ticket.ID, customer.ID, "CUSTOMER", "   ")
		requireDomainError(t, err, http.StatusBadRequest, "VALIDATION_FAILED")
	})

	t.Run("missing ticket is not found", func(t *testing.T) {
		f, customer, _, _ := setup(t)
		_, err := f.replies.CreateReply(ctx, "missing", customer.ID, "CUSTOMER", "hello")
		domainErr := requireDomainError(t, err, http.StatusNotFound, "NOT_FOUND")
		assert.Equal(t, "Ticket not found", domainErr.Message)
	})
}

func TestUpdateAndDeleteReply(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, *domain.User, *domain.User, *domain.Ticket, *domain.TicketReply) {
		f := newFixture(t)
		customer := f.newUser(t, "cust@example.com", domain.RoleCustomer)
		agent := f.newUser(t, "agent@example.com", domain.RoleAgent)
		ticket := f.newTicket(t, customer.ID, nil)
		result, err := f.replies.CreateReply(ctx, ticket.ID, customer.ID, "CUSTOMER", "original")
		require.NoError(t, err)
		return f, customer, agent, ticket, result.Reply
	}

	t.Run("author updates own reply", func(t *testing.T) {
		f, customer, _, ticket, reply := setup(t)
		rec := recordEvents(f.dispatcher, events.EventReplyUpdated)

		updated, err := f.replies.UpdateReply(ctx, ticket.ID, reply.ID, customer.ID, "edited")
		require.NoError(t, err)
		assert.Equal(t, "edited", updated.ResponseText)
		require.Len(t, rec.all(), 1)
	})

	t.Run("non author cannot update", func(t *testing.T) {
		f, _, agent, ticket, reply := setup(t)
		_, err := f.replies.UpdateReply(ctx, ticket.ID, reply.ID, agent.ID, "hijack")
		requireDomainError(t, err, http.StatusForbidden, "FORBIDDEN")
	})

	t.Run("empty update text rejected", func(t *testing.T) {
		f, customer, _, ticket, reply := setup(t)
		_, err := f.replies.UpdateReply(ctx, ticket.ID, reply.ID, customer.ID, " ")
		requireDomainError(t, err, http.StatusBadRequest, "VALIDATION_FAILED")
	})

	t.Run("reply must belong to the ticket", func(t *testing.T) {
		f, customer, _, _, reply := setup(t)
		other := f.newTicket(t, customer.ID, nil)

		_, err := f.replies.UpdateReply(ctx, other.ID, reply.ID, customer.ID, "edited")
		domainErr := requireDomainError(t, err, http.StatusNotFound, "NOT_FOUND")
		assert.Equal(t, "Reply not found", domainErr.Message)
	})

	t.Run("author deletes own reply", func(t *testing.T) {
		f, customer, _, ticket, reply := setup(t)
		rec := recordEvents(f.dispatcher, events.EventReplyDeleted)

		require.NoError(t, f.replies.DeleteReply(ctx, ticket.ID, reply.ID, customer.ID))
		require.Len(t, rec.all(), 1)

		err := f.replies.DeleteReply(ctx, ticket.ID, reply.ID, customer.ID)
		requireDomainError(t, err, http.StatusNotFound, "NOT_FOUND")
	})

	t.Run("non author cannot delete", func(t *testing.T) {
		f, _, agent, ticket, reply := setup(t)
		err := f.replies.DeleteReply(ctx, ticket.ID, reply.ID, agent.ID)
		requireDomainError(t, err, http.StatusForbidden, "FORBIDDEN")
	})
}

func TestResolveTicket(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, *domain.User, *domain.User, *domain.Ticket) {
		f := newFixture(t)
		customer := f.newUser(t, "cust@example.com", domain.RoleCustomer)
		agent := f.newUser(t, "agent@example.com", domain.RoleAgent)
		ticket := f.newTicket(t, customer.ID, nil)
		return f, customer, agent, ticket
	}

	t.Run("assigned agent resolves the ticket", func(t *testing.T) {
		f, _, agent, ticket := setup(t)
		rec := recordEvents(f.dispatcher, events.EventTicketResolved)

		resolved, err := f.replies.ResolveTicket(ctx, ticket.ID, agent.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusResolved, resolved.Status)
		require.NotNil(t, resolved.ResolvedAt)

		require.Len(t, rec.all(), 1)
		payload, ok := rec.all()[0].Payload.(events.TicketResolvedPayload)
		require.True(t, ok)
		assert.Equal(t, agent.ID, payload.AgentUserID)
	})

	t.Run("customers cannot resolve", func(t *testing.T) {
		f, customer, _, ticket := setup(t)
		_, err := f.replies.ResolveTicket(ctx, ticket.ID, customer.ID)
		requireDomainError(t, err, http.StatusForbidden, "FORBIDDEN")
	})

	t.Run("unassigned agent cannot resolve", func(t *testing.T) {
		f, _, _, ticket := setup(t)
		outsider := f.newUser(t, "agent2@example.com", domain.RoleAgent)

		_, err := f.replies.ResolveTicket(ctx, ticket.ID, outsider.ID)
		requireDomainError(t, err, http.StatusForbidden, "FORBIDDEN")
	})

	t.Run("second resolve conflicts", func(t *testing.T) {
		f, _, agent, ticket := setup(t)
		_, err := f.replies.ResolveTicket(ctx, ticket.ID, agent.ID)
		require.NoError(t, err)

		_, err = f.replies.ResolveTicket(ctx, ticket.ID, agent.ID)
		domainErr := requireDomainError(t, err, http.StatusBadRequest, "CONFLICT")
		assert.Equal(t, "ticket already resolved", domainErr.Message)
	})
}
