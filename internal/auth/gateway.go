package auth

import (
	"strings"

	"go.uber.org/zap"
)

// Scheme identifies which credential satisfied an authorization check.
type Scheme string

const (
	SchemeTicket Scheme = "ticket"
	SchemeJWT    Scheme = "jwt"
)

// Decision is the outcome of a successful authorization check.
type Decision struct {
	Scheme  Scheme
	Cached  bool
	Message string
}

// Gateway decides authentication subrequests the way an nginx
// auth_request handler would: a ticket in the original URI takes
// priority, otherwise a bearer token in the Authorization header.
type Gateway struct {
	tickets  *TicketStore
	verifier *Verifier
	logger   *zap.Logger
}

// NewGateway creates an authorization gateway.
func NewGateway(tickets *TicketStore, verifier *Verifier, logger *zap.Logger) *Gateway {
	return &Gateway{
		tickets:  tickets,
		verifier: verifier,
		logger:   logger,
	}
}

// Authorize checks the request credentials. originalURI is the value of
// the X-Original-URI header; authHeader the Authorization header. When
// the URI carries a ticket, the ticket decides the outcome and the
// Authorization header is never consulted.
func (g *Gateway) Authorize(originalURI, authHeader string) (Decision, error) {
	if ticket := TicketFromURI(originalURI); ticket != "" {
		if g.tickets.Check(ticket) {
			g.logger.Info("ticket accepted",
				zap.String("ticket", ticket),
				zap.String("uri", originalURI),
			)
			return Decision{Scheme: SchemeTicket, Message: "Ticket validated."}, nil
		}
		g.logger.Warn("invalid or expired ticket",
			zap.String("ticket", ticket),
			zap.String("uri", originalURI),
		)
		return Decision{Scheme: SchemeTicket}, ErrUnauthorized
	}

	token, ok := bearerToken(authHeader)
	if !ok {
		return Decision{Scheme: SchemeJWT}, ErrUnauthorized
	}

	cached, err := g.verifier.Verify(token)
	if err != nil {
		return Decision{Scheme: SchemeJWT}, err
	}

	msg := "Access granted after validation."
	if cached {
		msg = "Access granted from cache."
	}
	return Decision{Scheme: SchemeJWT, Cached: cached, Message: msg}, nil
}

// bearerToken extracts the token from a "Bearer <token>" header value.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
