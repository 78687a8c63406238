package transport

import (
	"context"
	"encoding/json"
)

// Envelope is the wire frame carried between agents. The payload is an
// opaque JSON document described by Schema; Sender and Target are agent
// addresses. Session groups the messages of one workflow instance.
type Envelope struct {
	Version int               `json:"version"`
	Sender  string            `json:"sender"`
	Target  string            `json:"target"`
	Session string            `json:"session"`
	Schema  string            `json:"schema"`
	Payload json.RawMessage   `json:"payload"`
	Headers map[string]string `json:"headers,omitempty"`
}

// EnvelopeVersion is the current envelope frame version.
const EnvelopeVersion = 1

// HeaderCorrelationID carries the workflow correlation token across hops.
const HeaderCorrelationID = "X-Correlation-ID"

// Handler processes one inbound envelope. Delivery is point-to-point: each
// envelope is handed to exactly one handler subscribed on its target address.
type Handler func(ctx context.Context, env Envelope) error

// Subscription is a live handler registration.
type Subscription interface {
	// Address returns the subscribed agent address.
	Address() string

	// Unsubscribe removes the registration.
	Unsubscribe() error
}

// Transport moves envelopes between agent addresses. Send is fire-and-forget
// from the caller's perspective; the handler may run in another process at an
// unspecified later time.
type Transport interface {
	// Send delivers an envelope to the handler subscribed on env.Target.
	Send(ctx context.Context, env Envelope) error

	// Subscribe registers a handler for an address.
	Subscribe(address string, handler Handler) (Subscription, error)

	// Close releases the transport's resources.
	Close() error
}

// Error is a coded transport error.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	// ErrClosed is returned when operating on a closed transport.
	ErrClosed = &Error{Code: "TRANSPORT_CLOSED", Message: "transport is closed"}

	// ErrNoRoute is returned when no endpoint or handler is known for the
	// target address.
	ErrNoRoute = &Error{Code: "NO_ROUTE", Message: "no route for target address"}
)

// ValidateAddress validates an agent address.
func ValidateAddress(address string) error {
	if address == "" {
		return &Error{Code: "INVALID_ADDRESS", Message: "address cannot be empty"}
	}
	if len(address) > 255 {
		return &Error{Code: "INVALID_ADDRESS", Message: "address too long (max 255 characters)"}
	}
	return nil
}

// ValidateEnvelope validates the routing fields of an envelope before a send.
func ValidateEnvelope(env Envelope) error {
	if err := ValidateAddress(env.Target); err != nil {
		return err
	}
	if err := ValidateAddress(env.Sender); err != nil {
		return err
	}
	if env.Schema == "" {
		return &Error{Code: "INVALID_SCHEMA", Message: "schema cannot be empty"}
	}
	if len(env.Payload) == 0 {
		return &Error{Code: "INVALID_BODY", Message: "payload cannot be empty"}
	}
	return nil
}
