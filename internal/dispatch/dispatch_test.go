package dispatch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/linkgrove/searchsync/internal/events"
)

func TestDispatchRoutesByType(t *testing.T) {
	var got string
	d := New(map[events.Type]HandlerFunc{
		events.UserCreated: func(ctx context.Context, data json.RawMessage) bool {
			got = string(data)
			return true
		},
	}, zerolog.Nop())

	outcome := d.Dispatch(context.Background(), events.Message{
		UUID: "m1",
		Type: events.UserCreated,
		Data: json.RawMessage(`{"user":{"uuid":"u1"}}`),
	})

	assert.Equal(t, Success, outcome)
	assert.JSONEq(t, `{"user":{"uuid":"u1"}}`, got)
}

func TestDispatchHandlerFailure(t *testing.T) {
	d := New(map[events.Type]HandlerFunc{
		events.UserCreated: func(ctx context.Context, data json.RawMessage) bool { return false },
	}, zerolog.Nop())

	outcome := d.Dispatch(context.Background(), events.Message{Type: events.UserCreated})
	assert.Equal(t, Failure, outcome)
}

func TestDispatchUnknownTypeIsUnroutable(t *testing.T) {
	d := New(map[events.Type]HandlerFunc{}, zerolog.Nop())

	outcome := d.Dispatch(context.Background(), events.Message{Type: "SOMETHING_ELSE"})
	assert.Equal(t, Unroutable, outcome)
}

func TestDispatchContainsPanics(t *testing.T) {
	d := New(map[events.Type]HandlerFunc{
		events.BookmarkCreated: func(ctx context.Context, data json.RawMessage) bool {
			panic("poisoned message")
		},
	}, zerolog.Nop())

	outcome := d.Dispatch(context.Background(), events.Message{Type: events.BookmarkCreated})
	assert.Equal(t, Failure, outcome)
}

func TestAliasedTypesShareOneHandler(t *testing.T) {
	calls := 0
	handler := func(ctx context.Context, data json.RawMessage) bool {
		calls++
		return true
	}
	d := New(map[events.Type]HandlerFunc{
		events.BookmarkCreated:  handler,
		events.BookmarkRestored: handler,
	}, zerolog.Nop())

	d.Dispatch(context.Background(), events.Message{Type: events.BookmarkCreated})
	d.Dispatch(context.Background(), events.Message{Type: events.BookmarkRestored})
	assert.Equal(t, 2, calls)
	assert.Len(t, d.Routes(), 2)
}
