// Package dispatch routes tagged events to exactly one handler by type.
package dispatch

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/linkgrove/searchsync/internal/events"
)

// HandlerFunc processes one event payload. It reports success with a bool
// and must never panic or let an error escape; the routing layer still
// guards both.
type HandlerFunc func(ctx context.Context, data json.RawMessage) bool

// Outcome is the terminal disposition of one message.
type Outcome int

const (
	// Success: the message is done and may be acknowledged.
	Success Outcome = iota
	// Failure: the handler could not complete; the message should be
	// redelivered by the upstream bus.
	Failure
	// Unroutable: the type tag is outside the closed set; the message
	// belongs on the dead letter queue and must not be retried.
	Unroutable
)

// Dispatcher is a total function from event type tags to handlers. Multiple
// tags may alias to one handler.
type Dispatcher struct {
	routes map[events.Type]HandlerFunc
	log    zerolog.Logger
}

// New builds a dispatcher over a routing table.
func New(routes map[events.Type]HandlerFunc, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{routes: routes, log: log}
}

// Routes returns the registered type tags, for diagnostics.
func (d *Dispatcher) Routes() []events.Type {
	out := make([]events.Type, 0, len(d.routes))
	for t := range d.routes {
		out = append(out, t)
	}
	return out
}

// Dispatch routes one message. A handler panic is contained and counts as
// Failure so a poisoned message cannot take the whole batch down.
func (d *Dispatcher) Dispatch(ctx context.Context, msg events.Message) (outcome Outcome) {
	handler, ok := d.routes[msg.Type]
	if !ok {
		d.log.Error().
			Str("type", string(msg.Type)).
			Str("uuid", msg.UUID).
			Str("source", msg.Source).
			Msg("unexpected event type, sending to dead letter queue")
		return Unroutable
	}

	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Interface("panic", r).
				Str("type", string(msg.Type)).
				Str("uuid", msg.UUID).
				Msg("handler panicked")
			outcome = Failure
		}
	}()

	d.log.Info().
		Str("type", string(msg.Type)).
		Str("uuid", msg.UUID).
		Msg("handling message")

	if handler(ctx, msg.Data) {
		return Success
	}
	return Failure
}
