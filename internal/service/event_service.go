package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/mockview-api/internal/dto"
	"github.com/noah-isme/mockview-api/internal/observability"
)

const eventBufferSize = 16

// EventService fans interview lifecycle events out to connected clients and
// to other API nodes.
type EventService interface {
	Publish(ctx context.Context, event dto.InterviewEvent)
	Subscribe(userID int64) (<-chan dto.InterviewEvent, func())
	Start(ctx context.Context)
}

type eventService struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	broker       *eventBroker
	nodeID       string
}

type eventEnvelope struct {
	Source string             `json:"source"`
	Event  dto.InterviewEvent `json:"event"`
	SentAt time.Time          `json:"sent_at"`
}

type eventBroker struct {
	mu          sync.RWMutex
	subscribers map[int64]map[chan dto.InterviewEvent]struct{}
}

// NewEventService constructs the event hub. Redis and NATS are optional.
func NewEventService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) EventService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":interviews"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".interviews"
	}

	return &eventService{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "event_service").Logger(),
		broker: &eventBroker{
			subscribers: make(map[int64]map[chan dto.InterviewEvent]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *eventService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		s.consumeNATS(ctx)
	}
}

func (s *eventService) Publish(ctx context.Context, event dto.InterviewEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	s.broker.broadcast(event)
	observability.InterviewEvents().WithLabelValues(event.Type, "local").Inc()

	if err := s.publish(ctx, event); err != nil {
		observability.Logger(ctx, s.logger).Warn().Err(err).Str("event", event.Type).Msg("failed to publish interview event to broker")
	}
}

func (s *eventService) Subscribe(userID int64) (<-chan dto.InterviewEvent, func()) {
	channel := make(chan dto.InterviewEvent, eventBufferSize)

	s.broker.subscribe(userID, channel)
	observability.EventClientsActive().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(userID, channel)
			observability.EventClientsActive().Dec()
		})
	}

	return channel, cleanup
}

func (s *eventService) publish(ctx context.Context, event dto.InterviewEvent) error {
	payload, err := json.Marshal(eventEnvelope{
		Source: s.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *eventService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			s.logger.Error().Err(err).Msg("interview event redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload))
	}
}

// Every node must see every event, so NATS uses a plain subscription rather
// than a queue group.
func (s *eventService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats interview subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain interview nats subscription")
		}
	}()
}

func (s *eventService) handleEnvelope(payload []byte) {
	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid interview event payload")
		return
	}

	if envelope.Source == s.nodeID {
		return
	}

	observability.InterviewEvents().WithLabelValues(envelope.Event.Type, "remote").Inc()
	s.broker.broadcast(envelope.Event)
}

func (b *eventBroker) subscribe(userID int64, ch chan dto.InterviewEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[userID]; !exists {
		b.subscribers[userID] = make(map[chan dto.InterviewEvent]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
}

func (b *eventBroker) unsubscribe(userID int64, ch chan dto.InterviewEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[userID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, userID)
		}
	}
}

func (b *eventBroker) broadcast(event dto.InterviewEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[event.UserID] {
		select {
		case ch <- event:
		default:
		}
	}
}
