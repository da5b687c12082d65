package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/hetulpatel/lotbidder/internal/bids"
	"github.com/hetulpatel/lotbidder/internal/hashutil"
)

// MessageWriter is the subset of *kafka.Writer used to publish.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// PublishBids sends one message per payload, keyed by lot id.
func PublishBids(ctx context.Context, writer MessageWriter, cycleID string, payloads []bids.Payload) error {
	if writer == nil || len(payloads) == 0 {
		return nil
	}

	produced := time.Now().UTC().Format(time.RFC3339Nano)
	msgs := make([]kafka.Message, 0, len(payloads))
	for _, p := range payloads {
		value, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal payload %s: %w", p.LotID(), err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(p.LotID()),
			Value: value,
			Headers: []kafka.Header{
				{Key: "cycle_id", Value: []byte(cycleID)},
				{Key: "digest", Value: []byte(hashutil.Digest(value))},
				{Key: "produced_at", Value: []byte(produced)},
			},
		})
	}
	return writer.WriteMessages(ctx, msgs...)
}
