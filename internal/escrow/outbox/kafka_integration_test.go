//go:build integration

package outbox_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"impactx/internal/escrow/models"
	"impactx/internal/escrow/outbox"
	id "impactx/pkg/domain"
	"impactx/pkg/testutil/containers"
)

type KafkaSinkSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	sink     *outbox.KafkaSink
	topics   [2]string
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupTest() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
	suffix := id.NewCampaignID().String()
	s.topics = [2]string{"disbursements-" + suffix, "events-" + suffix}

	var err error
	s.sink, err = outbox.NewKafkaSink(s.redpanda.Brokers, s.topics[0], s.topics[1])
	s.Require().NoError(err)
	s.Require().NoError(s.sink.EnsureTopics(context.Background(), 1, 1))
	// Second call must tolerate existing topics.
	s.Require().NoError(s.sink.EnsureTopics(context.Background(), 1, 1))
}

func (s *KafkaSinkSuite) TearDownTest() {
	s.sink.Close()
}

func (s *KafkaSinkSuite) consume(topic string, want int) []*kgo.Record {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	var records []*kgo.Record
	for len(records) < want {
		fetches := client.PollFetches(ctx)
		s.Require().NoError(ctx.Err(), "timed out waiting for records on %s", topic)
		fetches.EachRecord(func(r *kgo.Record) { records = append(records, r) })
	}
	return records
}

func (s *KafkaSinkSuite) TestPublishRoutesDisbursementsToSettlementTopic() {
	campaignID := id.NewCampaignID()
	disbursement := &models.Disbursement{
		ID:         id.NewDisbursementID(),
		CampaignID: campaignID,
		Kind:       models.DisbursementRelease,
		Reason:     models.ReasonProofApproved,
		Transfers:  []models.Transfer{{Destination: "ngo", Amount: 500}},
		Total:      500,
	}
	entries := []models.OutboxEntry{
		{Seq: 1, Event: models.Event{Type: models.EventDonationReceived, CampaignID: campaignID, Version: 2}},
		{Seq: 2, Event: models.Event{Type: models.EventEscrowReleased, CampaignID: campaignID, Version: 3, Disbursement: disbursement}},
	}

	n, err := s.sink.Publish(context.Background(), entries)
	s.Require().NoError(err)
	s.Equal(2, n)

	settlement := s.consume(s.topics[0], 1)
	s.Equal(campaignID.String(), string(settlement[0].Key))
	var got models.Event
	s.Require().NoError(json.Unmarshal(settlement[0].Value, &got))
	s.Require().NotNil(got.Disbursement)
	s.Equal(disbursement.ID, got.Disbursement.ID)
	s.Equal(int64(500), got.Disbursement.Total)

	events := s.consume(s.topics[1], 1)
	headers := map[string]string{}
	for _, h := range events[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	s.Equal(string(models.EventDonationReceived), headers[outbox.HeaderEventType])
	s.Equal("2", headers[outbox.HeaderVersion])
	s.Equal("1", headers[outbox.HeaderOutboxSeq])
}
