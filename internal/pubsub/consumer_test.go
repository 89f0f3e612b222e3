package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/linkgrove/searchsync/internal/dispatch"
	"github.com/linkgrove/searchsync/internal/events"
)

type fakeMsg struct {
	data  []byte
	acked bool
	naked bool
	term  bool
}

func (m *fakeMsg) Metadata() (*jetstream.MsgMetadata, error)  { return &jetstream.MsgMetadata{}, nil }
func (m *fakeMsg) Data() []byte                               { return m.data }
func (m *fakeMsg) Headers() nats.Header                       { return nil }
func (m *fakeMsg) Subject() string                            { return "bookmark-events.test" }
func (m *fakeMsg) Reply() string                              { return "" }
func (m *fakeMsg) Ack() error                                 { m.acked = true; return nil }
func (m *fakeMsg) DoubleAck(ctx context.Context) error        { m.acked = true; return nil }
func (m *fakeMsg) Nak() error                                 { m.naked = true; return nil }
func (m *fakeMsg) NakWithDelay(delay time.Duration) error     { m.naked = true; return nil }
func (m *fakeMsg) InProgress() error                          { return nil }
func (m *fakeMsg) Term() error                                { m.term = true; return nil }
func (m *fakeMsg) TermWithReason(reason string) error         { m.term = true; return nil }

func newTestConsumer(routes map[events.Type]dispatch.HandlerFunc) *Consumer {
	log := zerolog.Nop()
	return &Consumer{
		dispatcher: dispatch.New(routes, log),
		stream:     "bookmark-events",
		durable:    "search-sync",
		log:        log,
	}
}

func envelope(t *testing.T, typ events.Type) []byte {
	t.Helper()
	data, err := json.Marshal(events.Message{UUID: "m1", Type: typ, Data: json.RawMessage(`{}`)})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestHandleAcksOnSuccess(t *testing.T) {
	c := newTestConsumer(map[events.Type]dispatch.HandlerFunc{
		events.UserCreated: func(ctx context.Context, data json.RawMessage) bool { return true },
	})

	msg := &fakeMsg{data: envelope(t, events.UserCreated)}
	c.handle(context.Background(), msg)

	assert.True(t, msg.acked)
	assert.False(t, msg.naked)
	assert.False(t, msg.term)
}

func TestHandleNaksOnFailure(t *testing.T) {
	c := newTestConsumer(map[events.Type]dispatch.HandlerFunc{
		events.UserCreated: func(ctx context.Context, data json.RawMessage) bool { return false },
	})

	msg := &fakeMsg{data: envelope(t, events.UserCreated)}
	c.handle(context.Background(), msg)

	assert.True(t, msg.naked)
	assert.False(t, msg.acked)
}

func TestHandleTerminatesUnroutable(t *testing.T) {
	c := newTestConsumer(map[events.Type]dispatch.HandlerFunc{})

	msg := &fakeMsg{data: envelope(t, "NOT_A_THING")}
	c.handle(context.Background(), msg)

	assert.True(t, msg.term)
	assert.False(t, msg.naked)
}

func TestHandleTerminatesMalformedEnvelope(t *testing.T) {
	c := newTestConsumer(map[events.Type]dispatch.HandlerFunc{})

	msg := &fakeMsg{data: []byte("not json")}
	c.handle(context.Background(), msg)

	assert.True(t, msg.term)
}

func TestStreamName(t *testing.T) {
	assert.Equal(t, "BOOKMARK-EVENTS", streamName("bookmark-events"))
	assert.Equal(t, "A-B", streamName("a.b"))
}
