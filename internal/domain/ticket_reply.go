package domain

import "time"

// TicketReply is one entry in a ticket's threaded conversation. It holds a
// non-owning reference to its ticket and author; Role records the role the
// author acted as when replying.
type TicketReply struct {
	ID           string
	TicketID     string
	AuthorUserID string
	Role         Role
	ResponseText string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
