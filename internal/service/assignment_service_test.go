package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

func TestParseAssignmentPolicy(t *testing.T) {
	assert.Equal(t, PolicyRoundRobin, ParseAssignmentPolicy(""))
	assert.Equal(t, PolicyRoundRobin, ParseAssignmentPolicy("round_robin"))
	assert.Equal(t, PolicyRoundRobin, ParseAssignmentPolicy("whatever"))
	assert.Equal(t, PolicyRandom, ParseAssignmentPolicy("random"))
}

func TestNextAgent(t *testing.T) {
	ctx := context.Background()

	t.Run("fails without agents", func(t *testing.T) {
		store := repository.NewMemoryStore()
		assigner := NewAssignmentService(store.Users(), PolicyRoundRobin)

		_, err := assigner.NextAgent(ctx)
		domainErr := requireDomainError(t, err, http.StatusInternalServerError, "NO_AGENTS_AVAILABLE")
		assert.Equal(t, "No available agents for ticket assignment", domainErr.Message)
	})

	t.Run("round robin cycles agents in signup order", func(t *testing.T) {
		f := newFixture(t)
		first := f.newUser(t, "agent1@example.com", domain.RoleAgent)
		second := f.newUser(t, "agent2@example.com", domain.RoleAgent)
		third := f.newUser(t, "agent3@example.com", domain.RoleAgent)

		var picks []string
		for i := 0; i < 6; i++ {
			agent, err := f.assigner.NextAgent(ctx)
			require.NoError(t, err)
			picks = append(picks, agent.ID)
		}
		expected := []string{first.ID, second.ID, third.ID, first.ID, second.ID, third.ID}
		assert.Equal(t, expected, picks)
	})

	t.Run("random picks an existing agent", func(t *testing.T) {
		f := newFixture(t)
		agent := f.newUser(t, "agent1@example.com", domain.RoleAgent)
		random := NewAssignmentService(f.store.Users(), PolicyRandom)

		for i := 0; i < 5; i++ {
			picked, err := random.NextAgent(ctx)
			require.NoError(t, err)
			assert.Equal(t, agent.ID, picked.ID)
		}
	})
}
