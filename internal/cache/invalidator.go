package cache

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
)

// Invalidator subscribes to ticket mutations and evicts the count entries
// they affect, replacing TTL-only staleness with evict-on-write.
type Invalidator struct {
	cache  *CountCache
	logger *zap.Logger
}

// NewInvalidator builds the subscriber.
func NewInvalidator(cache *CountCache, logger *zap.Logger) *Invalidator {
	return &Invalidator{cache: cache, logger: logger}
}

// Register wires the invalidator onto the dispatcher. Only events that move
// tickets between status buckets matter; reply events do not change counts.
func (i *Invalidator) Register(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, i.handleTicketCreated)
	dispatcher.Subscribe(events.EventTicketResolved, i.handleTicketResolved)
}

func (i *Invalidator) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	return i.evict(ctx, event, payload.Category, payload.CustomerUserID, payload.AgentUserID)
}

func (i *Invalidator) handleTicketResolved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketResolvedPayload)
	if !ok {
		return nil
	}
	return i.evict(ctx, event, payload.Category, payload.CustomerUserID, payload.AgentUserID)
}

func (i *Invalidator) evict(ctx context.Context, event events.Event, category domain.TicketCategory, userIDs ...string) error {
	if err := i.cache.Invalidate(ctx, category, userIDs...); err != nil {
		i.logger.Warn("count invalidation failed",
			zap.String("ticket_id", event.TicketID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
		return err
	}
	return nil
}
