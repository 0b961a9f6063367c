package scanfeed

import (
	"context"
	"encoding/json"
	"log/slog"

	"fpattend/internal/metrics"
	"fpattend/internal/queue"
)

// Consumer applies queue messages to a Feed.
type Consumer struct {
	feed    Feed
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewConsumer creates a consumer. m may be nil.
func NewConsumer(feed Feed, log *slog.Logger, m *metrics.Metrics) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{feed: feed, log: log, metrics: m}
}

// KindFor maps a queue message type to its feed slot.
func KindFor(msgType string) (Kind, bool) {
	switch msgType {
	case queue.TypeEnrolled:
		return Enrollment, true
	case queue.TypeCheckIn, queue.TypeCheckOut:
		return Attendance, true
	}
	return "", false
}

// Run drains messages until the channel closes or ctx is done.
func (c *Consumer) Run(ctx context.Context, messages <-chan queue.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			c.Apply(ctx, msg)
		}
	}
}

// Apply records one message. Unknown or malformed messages are logged and skipped.
func (c *Consumer) Apply(ctx context.Context, msg queue.Message) {
	kind, ok := KindFor(msg.Type)
	if !ok {
		c.log.Warn("skip unknown message", "type", msg.Type)
		return
	}
	var e Entry
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		c.log.Warn("skip malformed message", "type", msg.Type, "err", err)
		return
	}
	if err := c.feed.Record(ctx, kind, e); err != nil {
		c.log.Error("feed record failed", "kind", kind, "err", err)
		return
	}
	c.metrics.ObserveFeedUpdate(msg.Type)
	c.log.Debug("feed updated", "kind", kind, "fingerprint_id", e.FingerprintID)
}
