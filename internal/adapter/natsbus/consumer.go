// internal/adapter/natsbus/consumer.go

package natsbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"fieldwatch/internal/domain/detection"
)

// Processor handles one detection event
type Processor interface {
	Process(ctx context.Context, id string, rec detection.Record) error
}

// ConsumerConfig contains configuration for the detection consumer
type ConsumerConfig struct {
	Subject        string
	QueueGroup     string
	ProcessTimeout time.Duration
}

// Consumer is the thin adapter between the delivery transport and the
// detection event handler: it subscribes to detection-created events and
// invokes the handler once per message. Delivery is at-least-once with no
// ordering guarantee; redelivery of failed messages is the transport's job.
type Consumer struct {
	conn      *nats.Conn
	processor Processor
	config    ConsumerConfig
	validate  *validator.Validate
	log       zerolog.Logger
	sub       *nats.Subscription
}

// NewConsumer creates a new detection event consumer
func NewConsumer(conn *nats.Conn, processor Processor, config ConsumerConfig, log zerolog.Logger) *Consumer {
	return &Consumer{
		conn:      conn,
		processor: processor,
		config:    config,
		validate:  validator.New(),
		log:       log.With().Str("component", "natsbus").Logger(),
	}
}

// Start subscribes to the detections subject. Handlers run on the NATS
// delivery goroutine; each invocation is bounded by ProcessTimeout.
func (c *Consumer) Start() error {
	sub, err := c.conn.QueueSubscribe(c.config.Subject, c.config.QueueGroup, c.handleMessage)
	if err != nil {
		return err
	}
	c.sub = sub

	c.log.Info().
		Str("subject", c.config.Subject).
		Str("queue", c.config.QueueGroup).
		Msg("subscribed to detection events")
	return nil
}

// Stop drains the subscription
func (c *Consumer) Stop() error {
	if c.sub == nil {
		return nil
	}
	return c.sub.Drain()
}

func (c *Consumer) handleMessage(msg *nats.Msg) {
	var event detection.Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		// Undecodable payloads can never succeed; log and drop
		c.log.Error().Err(err).Msg("discarding malformed detection event")
		return
	}

	if err := c.validate.Struct(event); err != nil {
		c.log.Error().Err(err).Str("detection_id", event.ID).Msg("discarding invalid detection event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.config.ProcessTimeout)
	defer cancel()

	if err := c.processor.Process(ctx, event.ID, event.Record); err != nil {
		// Failed invocations are left to the transport's redelivery
		c.log.Error().Err(err).Str("detection_id", event.ID).Msg("detection processing failed")
	}
}
