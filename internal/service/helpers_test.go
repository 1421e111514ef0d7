package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

type fixture struct {
	store      *repository.MemoryStore
	dispatcher events.Dispatcher
	auth       *AuthService
	assigner   *AssignmentService
	tickets    *TicketService
	replies    *ReplyService
	bookings   *BookingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	store := repository.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher()

	assigner := NewAssignmentService(store.Users(), PolicyRoundRobin)
	authCfg := config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}

	return &fixture{
		store:      store,
		dispatcher: dispatcher,
		auth:       NewAuthService(authCfg, store.Users(), logger),
		assigner:   assigner,
		tickets: NewTicketService(TicketDependencies{
			UserRepo:    store.Users(),
			BookingRepo: store.Bookings(),
			TicketRepo:  store.Tickets(),
			ReplyRepo:   store.Replies(),
			Assigner:    assigner,
			Dispatcher:  dispatcher,
			Logger:      logger,
		}),
		replies:  NewReplyService(store.Users(), store.Tickets(), store.Replies(), dispatcher, logger),
		bookings: NewBookingService(store.Users(), store.Bookings(), logger),
	}
}

func (f *fixture) newUser(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	user, err := f.auth.Signup(context.Background(), email, "secret123", string(role))
	require.NoError(t, err)
	return user
}

func (f *fixture) newBooking(t *testing.T, ownerID string) *domain.Booking {
	t.Helper()
	booking := &domain.Booking{OwnerUserID: ownerID}
	require.NoError(t, f.store.Bookings().Create(context.Background(), booking))
	return booking
}

func (f *fixture) newTicket(t *testing.T, customerID string, bookingID *string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(context.Background(), TicketCreateInput{
		UserID:      customerID,
		BookingID:   bookingID,
		Description: "something broke",
		Role:        "CUSTOMER",
	})
	require.NoError(t, err)
	return ticket
}

// eventRecorder captures dispatched events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func recordEvents(d events.Dispatcher, types ...events.EventType) *eventRecorder {
	rec := &eventRecorder{}
	for _, eventType := range types {
		d.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.events = append(rec.events, event)
			return nil
		})
	}
	return rec
}

func (r *eventRecorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event{}, r.events...)
}

func (r *eventRecorder) ofType(eventType events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, event := range r.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func requireDomainError(t *testing.T, err error, status int, code string) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, status, domainErr.HTTPStatus)
	require.Equal(t, code, domainErr.Code)
	return domainErr
}
