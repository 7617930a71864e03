package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tickethelp/repair-service/internal/config"
	"github.com/tickethelp/repair-service/internal/events"
	"github.com/tickethelp/repair-service/internal/service"
)

type recordingPublisher struct {
	mu       sync.Mutex
	channels []string
	payloads [][]byte
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestEventRelay_PublishesDispatchedEvents(t *testing.T) {
	publisher := &recordingPublisher{}
	relay := NewEventRelay(publisher, "tickets:events", 8, zap.NewNop())
	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, relay, zap.NewNop(), config.NotificationConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	StartNotificationWorker(ctx, notifications, relay)

	event := events.New(events.EventPartRegistered, 7, nil, events.PartPayload{PartID: 1, Name: "Fan", Quantity: 2, CostTotal: "51.00"})
	require.NoError(t, dispatcher.Publish(context.Background(), event))

	cancel()
	relay.Wait()

	require.Len(t, publisher.payloads, 1)
	assert.Equal(t, "tickets:events", publisher.channels[0])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &decoded))
	assert.Equal(t, "part_registered", decoded["type"])
	assert.Equal(t, float64(7), decoded["ticket_id"])
}

func TestEventRelay_ForwardWhenFull(t *testing.T) {
	relay := NewEventRelay(&recordingPublisher{}, "tickets:events", 1, zap.NewNop())
	event := events.New(events.EventTicketCreated, 1, nil, nil)

	require.NoError(t, relay.Forward(context.Background(), event))
	assert.ErrorIs(t, relay.Forward(context.Background(), event), ErrQueueFull)
}
