//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"slotkeeper/internal/events"
	"slotkeeper/internal/registry/models"
	"slotkeeper/pkg/domain"
	"slotkeeper/pkg/testutil/containers"
)

const testTopic = "slotkeeper.registrations.test"

type KafkaPublisherSuite struct {
	suite.Suite
	redpanda  *containers.RedpandaContainer
	publisher *events.KafkaPublisher
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	ctx := context.Background()
	s.redpanda = containers.NewRedpandaContainer(s.T())

	admin, err := kgo.NewClient(kgo.SeedBrokers(s.redpanda.Broker))
	s.Require().NoError(err)
	defer admin.Close()
	_, err = kadm.NewClient(admin).CreateTopics(ctx, 1, 1, nil, testTopic)
	s.Require().NoError(err)

	s.publisher, err = events.NewKafkaPublisher([]string{s.redpanda.Broker}, testTopic)
	s.Require().NoError(err)
}

func (s *KafkaPublisherSuite) TearDownSuite() {
	if s.publisher != nil {
		s.publisher.Close()
	}
}

func (s *KafkaPublisherSuite) TestEmitRegistered() {
	ctx := context.Background()

	event := models.RegisteredEvent{
		ID:    "event-1",
		Net:   domain.NetID(7),
		UID:   domain.UID(3),
		Key:   domain.Key("alice"),
		Block: domain.Block(1000),
	}
	s.Require().NoError(s.publisher.EmitRegistered(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(testTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	pollCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(pollCtx)
	s.Require().NoError(fetches.Err())

	records := fetches.Records()
	s.Require().Len(records, 1)
	s.Equal([]byte("7"), records[0].Key)

	var got models.RegisteredEvent
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(event, got)
}
