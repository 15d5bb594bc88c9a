package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"impactx/internal/escrow/models"
)

// Record header keys.
const (
	HeaderEventType = "event_type"
	HeaderVersion   = "version"
	HeaderOutboxSeq = "outbox_seq"
)

// KafkaSink produces outbox entries to Kafka. Disbursement instructions go to
// their own topic for the settlement rail; every other transition goes to the
// events topic. Records are keyed by campaign id so one campaign's events
// stay ordered within a partition.
type KafkaSink struct {
	client            *kgo.Client
	disbursementTopic string
	eventsTopic       string
}

// NewKafkaSink connects a producer. Extra kgo options are appended after the
// defaults, so callers can override them.
func NewKafkaSink(brokers []string, disbursementTopic, eventsTopic string, opts ...kgo.Opt) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if disbursementTopic == "" || eventsTopic == "" {
		return nil, errors.New("kafka topics are required")
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ClientID("impactx-escrow"),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaSink{
		client:            client,
		disbursementTopic: disbursementTopic,
		eventsTopic:       eventsTopic,
	}, nil
}

// TopicFor routes an event type to its topic.
func (k *KafkaSink) TopicFor(t models.EventType) string {
	if t.IsDisbursement() {
		return k.disbursementTopic
	}
	return k.eventsTopic
}

func (k *KafkaSink) Publish(ctx context.Context, entries []models.OutboxEntry) (int, error) {
	records := make([]*kgo.Record, 0, len(entries))
	for _, entry := range entries {
		value, err := json.Marshal(entry.Event)
		if err != nil {
			return 0, fmt.Errorf("marshal outbox entry %d: %w", entry.Seq, err)
		}
		records = append(records, &kgo.Record{
			Topic: k.TopicFor(entry.Event.Type),
			Key:   []byte(entry.Event.CampaignID.String()),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: HeaderEventType, Value: []byte(entry.Event.Type)},
				{Key: HeaderVersion, Value: []byte(strconv.FormatInt(entry.Event.Version, 10))},
				{Key: HeaderOutboxSeq, Value: []byte(strconv.FormatInt(entry.Seq, 10))},
			},
		})
	}

	results := k.client.ProduceSync(ctx, records...)
	for i, res := range results {
		if res.Err != nil {
			return i, fmt.Errorf("produce outbox entry %d: %w", entries[i].Seq, res.Err)
		}
	}
	return len(results), nil
}

// EnsureTopics creates both topics if they do not exist yet.
func (k *KafkaSink) EnsureTopics(ctx context.Context, partitions int32, replication int16) error {
	adm := kadm.NewClient(k.client)
	resp, err := adm.CreateTopics(ctx, partitions, replication, nil, k.disbursementTopic, k.eventsTopic)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, t := range resp.Sorted() {
		if t.Err != nil && !errors.Is(t.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", t.Topic, t.Err)
		}
	}
	return nil
}

func (k *KafkaSink) Ping(ctx context.Context) error {
	return k.client.Ping(ctx)
}

func (k *KafkaSink) Close() {
	k.client.Close()
}
