package domain

import "time"

// Booking is a purchase a ticket may be raised against. A ticket that
// references a booking is "postbooking"; one without is "prebooking".
type Booking struct {
	ID          string
	OwnerUserID string
	CreatedAt   time.Time
}
