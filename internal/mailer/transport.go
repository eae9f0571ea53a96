package mailer

import (
	"context"
	"errors"
)

// Transport delivers a composed message. Implementations classify their
// failures with ErrAuth and ErrConnection so the API layer can map them to
// distinct status codes.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// ErrAuth marks an authentication failure at the mail transport (HTTP 401).
var ErrAuth = errors.New("mail transport authentication failed")

// ErrConnection marks a connection failure at the mail transport (HTTP 503).
var ErrConnection = errors.New("mail transport connection failed")
