package worker

import (
	"github.com/spec-kit/support-desk/internal/cache"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartCacheInvalidator subscribes the count-cache invalidator to ticket
// lifecycle events.
func StartCacheInvalidator(invalidator *cache.Invalidator, dispatcher events.Dispatcher) {
	if invalidator == nil || dispatcher == nil {
		return
	}
	invalidator.Register(dispatcher)
}
