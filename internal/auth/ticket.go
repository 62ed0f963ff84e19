package auth

import (
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gemhq/cdpgate/internal/cache"
)

// Ticket is a short-lived single credential issued to clients that
// cannot attach an Authorization header, such as browser WebSocket
// connections.
type Ticket struct {
	Ticket    string `json:"ticket"`
	ExpiresIn int    `json:"expires_in"`
}

// TicketStore issues and validates short-lived tickets. Tickets remain
// valid for multiple requests until they expire.
type TicketStore struct {
	cache  *cache.Cache[string, struct{}]
	ttl    time.Duration
	logger *zap.Logger
}

// NewTicketStore creates a ticket store with the given lifetime.
func NewTicketStore(c *cache.Cache[string, struct{}], ttl time.Duration, logger *zap.Logger) *TicketStore {
	return &TicketStore{
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// Issue creates a new ticket. Each call mints a distinct ticket.
func (s *TicketStore) Issue() Ticket {
	ticket := uuid.NewString()
	s.cache.Set(ticket, struct{}{}, s.ttl)

	s.logger.Info("issued ticket",
		zap.String("ticket", ticket),
		zap.Duration("ttl", s.ttl),
	)

	return Ticket{
		Ticket:    ticket,
		ExpiresIn: int(s.ttl / time.Second),
	}
}

// Check reports whether the ticket is still active.
func (s *TicketStore) Check(ticket string) bool {
	_, ok := s.cache.Get(ticket)
	return ok
}

// TicketFromURI extracts the ticket query parameter from a request URI.
// When the parameter repeats, the last occurrence wins. Returns "" when
// no ticket is present.
func TicketFromURI(originalURI string) string {
	u, err := url.Parse(originalURI)
	if err != nil {
		return ""
	}
	tickets := u.Query()["ticket"]
	if len(tickets) == 0 {
		return ""
	}
	return tickets[len(tickets)-1]
}
