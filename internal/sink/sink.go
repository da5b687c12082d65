package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hetulpatel/lotbidder/internal/bids"
	"github.com/hetulpatel/lotbidder/internal/logging"
	"github.com/hetulpatel/lotbidder/internal/queue"
	"github.com/hetulpatel/lotbidder/internal/storage"
)

// BlobSink overwrites the all_requests blob with each cycle's batch.
type BlobSink struct {
	blobs storage.BlobStore
	log   logging.Logger
}

func NewBlobSink(blobs storage.BlobStore, log logging.Logger) *BlobSink {
	if log == nil {
		log = logging.Nop()
	}
	return &BlobSink{blobs: blobs, log: log}
}

func (s *BlobSink) WriteBatch(ctx context.Context, cycleID string, payloads []bids.Payload) error {
	data, err := json.MarshalIndent(payloads, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}
	if err := s.blobs.Save(ctx, storage.KeyAllRequests, data); err != nil {
		return fmt.Errorf("save batch: %w", err)
	}
	s.log.Infof("[sink] cycle=%s saved %d payloads to %s", cycleID, len(payloads), storage.KeyAllRequests)
	return nil
}

// LastBatch returns the most recently written batch, if any.
func (s *BlobSink) LastBatch(ctx context.Context) ([]bids.Payload, error) {
	data, ok, err := s.blobs.Load(ctx, storage.KeyAllRequests)
	if err != nil || !ok {
		return nil, err
	}
	var out []bids.Payload
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	return out, nil
}

// KafkaPublisher pushes persisted payloads to a topic.
type KafkaPublisher struct {
	writer queue.MessageWriter
}

func NewKafkaPublisher(writer queue.MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, cycleID string, payloads []bids.Payload) error {
	return queue.PublishBids(ctx, p.writer, cycleID, payloads)
}
