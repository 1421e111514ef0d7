package service

import (
	"context"
	"math/rand"
	"net/http"
	"sync/atomic"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// AssignmentPolicy selects how agents are picked for new tickets.
type AssignmentPolicy string

const (
	PolicyRoundRobin AssignmentPolicy = "round_robin"
	PolicyRandom     AssignmentPolicy = "random"
)

// ParseAssignmentPolicy normalizes a configured policy name, defaulting to
// round-robin.
func ParseAssignmentPolicy(raw string) AssignmentPolicy {
	if AssignmentPolicy(raw) == PolicyRandom {
		return PolicyRandom
	}
	return PolicyRoundRobin
}

// AssignmentService picks the agent for a newly created ticket. Round-robin
// walks the agent set (ordered by signup time) using a shared atomic counter,
// so concurrent creates distribute evenly within one process. The counter is
// not persisted; it restarts at the first agent after a process restart.
type AssignmentService struct {
	users   repository.UserRepository
	policy  AssignmentPolicy
	counter atomic.Uint64
}

// NewAssignmentService creates the service.
func NewAssignmentService(users repository.UserRepository, policy AssignmentPolicy) *AssignmentService {
	return &AssignmentService{users: users, policy: policy}
}

// NextAgent returns the agent to assign to the next ticket. An empty agent
// pool is a server-side failure, not a client error.
func (s *AssignmentService) NextAgent(ctx context.Context) (*domain.User, error) {
	agents, err := s.users.ListByRole(ctx, domain.RoleAgent)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(agents) == 0 {
		return nil, apperrors.NewDomainError(
			"NO_AGENTS_AVAILABLE",
			"No available agents for ticket assignment",
			http.StatusInternalServerError,
			nil,
		)
	}

	var index int
	switch s.policy {
	case PolicyRandom:
		index = rand.Intn(len(agents))
	default:
		index = int((s.counter.Add(1) - 1) % uint64(len(agents)))
	}
	agent := agents[index]
	return &agent, nil
}
