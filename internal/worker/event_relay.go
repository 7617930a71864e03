package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tickethelp/repair-service/internal/events"
	"github.com/tickethelp/repair-service/internal/service"
)

// Publisher sends a payload to a pub/sub channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// ErrQueueFull is returned by Forward when the relay cannot keep up.
var ErrQueueFull = errors.New("event relay queue is full")

const publishTimeout = 2 * time.Second

// EventRelay republishes events to a Redis channel from a background
// goroutine so request handlers never wait on Redis.
type EventRelay struct {
	publisher Publisher
	channel   string
	logger    *zap.Logger
	queue     chan []byte
	wg        sync.WaitGroup
}

// NewEventRelay builds a relay with a bounded queue.
func NewEventRelay(publisher Publisher, channel string, size int, logger *zap.Logger) *EventRelay {
	if size <= 0 {
		size = 256
	}
	return &EventRelay{
		publisher: publisher,
		channel:   channel,
		logger:    logger,
		queue:     make(chan []byte, size),
	}
}

// Forward encodes the event and queues it without blocking.
func (r *EventRelay) Forward(_ context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	select {
	case r.queue <- payload:
		return nil
	default:
		r.logger.Warn("dropping ticket event", zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))
		return ErrQueueFull
	}
}

// Start drains the queue until ctx is cancelled, then flushes what is left.
func (r *EventRelay) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case payload := <-r.queue:
				r.publish(payload)
			case <-ctx.Done():
				for {
					select {
					case payload := <-r.queue:
						r.publish(payload)
					default:
						return
					}
				}
			}
		}
	}()
}

// Wait blocks until the relay goroutine has exited.
func (r *EventRelay) Wait() {
	r.wg.Wait()
}

func (r *EventRelay) publish(payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.publisher.Publish(ctx, r.channel, payload); err != nil {
		r.logger.Warn("failed to publish ticket event", zap.String("channel", r.channel), zap.Error(err))
	}
}

// StartNotificationWorker registers notification handlers and starts relay.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, relay *EventRelay) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if relay != nil {
		relay.Start(ctx)
	}
}
