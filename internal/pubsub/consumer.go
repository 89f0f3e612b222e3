// Package pubsub connects the event dispatcher to the upstream NATS
// JetStream bus with at-least-once delivery.
package pubsub

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/linkgrove/searchsync/internal/dispatch"
	"github.com/linkgrove/searchsync/internal/events"
)

// Consumer reads bookmark events off a durable JetStream consumer and feeds
// them through the dispatcher. Acknowledgement follows the dispatch outcome:
// success acks, failure naks for redelivery, unroutable terminates so the
// server parks the message instead of redelivering it forever.
type Consumer struct {
	js         jetstream.JetStream
	dispatcher *dispatch.Dispatcher
	stream     string
	durable    string
	log        zerolog.Logger
}

func NewConsumer(nc *nats.Conn, dispatcher *dispatch.Dispatcher, stream, durable string, log zerolog.Logger) (*Consumer, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, errors.Wrap(err, "create jetstream context")
	}
	return &Consumer{
		js:         js,
		dispatcher: dispatcher,
		stream:     stream,
		durable:    durable,
		log:        log,
	}, nil
}

// Run ensures the stream and durable consumer exist, then blocks consuming
// until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	subject := c.stream + ".>"

	// streams are normally provisioned out of band; creating here keeps
	// local development self-contained
	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName(c.stream),
		Subjects: []string{subject},
		Storage:  jetstream.FileStorage,
	})
	if err != nil {
		return errors.Wrap(err, "ensure stream")
	}

	consumer, err := c.js.CreateOrUpdateConsumer(ctx, streamName(c.stream), jetstream.ConsumerConfig{
		Durable:       c.durable,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: subject,
		AckWait:       30 * time.Second,
	})
	if err != nil {
		return errors.Wrap(err, "ensure consumer")
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		c.handle(ctx, msg)
	})
	if err != nil {
		return errors.Wrap(err, "start consuming")
	}
	defer cc.Stop()

	c.log.Info().Str("stream", c.stream).Str("durable", c.durable).Msg("event consumer started")
	<-ctx.Done()
	c.log.Info().Msg("event consumer stopping")
	return nil
}

func (c *Consumer) handle(ctx context.Context, msg jetstream.Msg) {
	var m events.Message
	if err := json.Unmarshal(msg.Data(), &m); err != nil {
		// a malformed envelope can never succeed on redelivery
		c.log.Error().Err(err).Str("subject", msg.Subject()).Msg("malformed event envelope")
		c.term(msg)
		return
	}

	switch c.dispatcher.Dispatch(ctx, m) {
	case dispatch.Success:
		if err := msg.Ack(); err != nil {
			c.log.Error().Err(err).Str("uuid", m.UUID).Msg("ack failed")
		}
	case dispatch.Failure:
		if err := msg.Nak(); err != nil {
			c.log.Error().Err(err).Str("uuid", m.UUID).Msg("nak failed")
		}
	case dispatch.Unroutable:
		c.log.Warn().Str("uuid", m.UUID).Str("type", string(m.Type)).Msg("terminating unroutable message")
		c.term(msg)
	}
}

func (c *Consumer) term(msg jetstream.Msg) {
	if err := msg.Term(); err != nil {
		c.log.Error().Err(err).Str("subject", msg.Subject()).Msg("term failed")
	}
}

// streamName maps the configured stream id onto a valid JetStream stream
// name. Dots delimit subject tokens and are not allowed in names.
func streamName(stream string) string {
	return strings.ToUpper(strings.ReplaceAll(stream, ".", "-"))
}
