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
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/idea-board/internal/dto"
	"github.com/noah-isme/idea-board/internal/models"
	"github.com/noah-isme/idea-board/internal/observability"
)

const (
	notificationBufferSize = 16
	remoteSeenSize         = 256
	defaultFeedLimit       = 50
	maxFeedLimit           = 200
)

// NotificationFeed is the subset of the engagement store that owns the notification feed.
type NotificationFeed interface {
	Notifications() []models.Notification
	UnreadCount() int
	MarkAllNotificationsRead(ctx context.Context) error
}

// NotificationService lists the owner's feed and streams new notifications to live listeners.
type NotificationService interface {
	NotificationPublisher
	List(ctx context.Context, limit, offset int) (dto.NotificationListResult, error)
	UnreadCount(ctx context.Context) int
	MarkAllRead(ctx context.Context) error
	Subscribe() (<-chan dto.NotificationResponse, func())
	Start(ctx context.Context)
}

type notificationService struct {
	feed         NotificationFeed
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	tracer       trace.Tracer
	broker       *notificationBroker
	nodeID       string
}

type notificationEvent struct {
	Source       string                   `json:"source"`
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

type notificationBroker struct {
	mu          sync.RWMutex
	subscribers map[chan dto.NotificationResponse]struct{}
	seen        map[string]struct{}
	seenOrder   []string
}

// NewNotificationService constructs a notification service. redisClient and natsConn are optional
// mirrors that carry events to other API nodes sharing the same channel prefix.
func NewNotificationService(feed NotificationFeed, redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) NotificationService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":notifications"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".notifications"
	}

	return &notificationService{
		feed:         feed,
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "notification_service").Logger(),
		tracer:       observability.Tracer("service/notification"),
		broker: &notificationBroker{
			subscribers: make(map[chan dto.NotificationResponse]struct{}),
			seen:        make(map[string]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *notificationService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

// Publish delivers notifications oldest first so live listeners see them in feed order.
func (s *notificationService) Publish(ctx context.Context, notifications []models.Notification) {
	spanCtx, span := s.tracer.Start(ctx, "notifications.publish", trace.WithAttributes(
		attribute.Int("notifications.count", len(notifications)),
	))
	defer span.End()

	for idx := len(notifications) - 1; idx >= 0; idx-- {
		response := dto.NewNotificationResponse(notifications[idx])
		s.broker.broadcast(response)
		if err := s.publish(spanCtx, response); err != nil {
			span.RecordError(err)
			s.logger.Warn().Err(err).Str("notification_id", response.ID).Msg("failed to publish notification to broker")
		}
	}
}

func (s *notificationService) List(ctx context.Context, limit, offset int) (dto.NotificationListResult, error) {
	_, span := s.tracer.Start(ctx, "notifications.list")
	defer span.End()

	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	if offset < 0 {
		return dto.NotificationListResult{}, errors.New("offset must not be negative")
	}

	all := s.feed.Notifications()
	unread := 0
	for _, notification := range all {
		if !notification.Read {
			unread++
		}
	}

	start := offset
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}

	return dto.NotificationListResult{
		Items:  dto.NewNotificationResponseSlice(all[start:end]),
		Total:  len(all),
		Unread: unread,
	}, nil
}

func (s *notificationService) UnreadCount(_ context.Context) int {
	return s.feed.UnreadCount()
}

func (s *notificationService) MarkAllRead(ctx context.Context) error {
	spanCtx, span := s.tracer.Start(ctx, "notifications.mark_all_read")
	defer span.End()

	err := s.feed.MarkAllNotificationsRead(spanCtx)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (s *notificationService) Subscribe() (<-chan dto.NotificationResponse, func()) {
	channel := make(chan dto.NotificationResponse, notificationBufferSize)

	s.broker.subscribe(channel)
	observability.NotificationSubscribers().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(channel)
			observability.NotificationSubscribers().Dec()
		})
	}

	return channel, cleanup
}

func (s *notificationService) publish(ctx context.Context, notification dto.NotificationResponse) error {
	if (s.redis == nil || s.redisChannel == "") && (s.nats == nil || s.natsSubject == "") {
		return nil
	}

	event := notificationEvent{
		Source:       s.nodeID,
		Notification: notification,
		SentAt:       time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
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

func (s *notificationService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Msg("notification redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *notificationService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats notifications subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain notification nats subscription")
		}
	}()
}

// handleEvent relays notifications raised on other nodes. Events from this node were already
// broadcast locally and are skipped, as is the second copy when both mirrors are configured.
func (s *notificationService) handleEvent(payload []byte) {
	var event notificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid notification event payload")
		return
	}

	if event.Source == s.nodeID {
		return
	}
	if !s.broker.remember(event.Notification.ID) {
		return
	}

	s.broker.broadcast(event.Notification)
}

func (b *notificationBroker) subscribe(ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[ch] = struct{}{}
}

func (b *notificationBroker) unsubscribe(ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

func (b *notificationBroker) broadcast(notification dto.NotificationResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- notification:
		default:
		}
	}
}

// remember records a relayed notification id and reports whether it was new.
func (b *notificationBroker) remember(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.seen[id]; ok {
		return false
	}
	b.seen[id] = struct{}{}
	b.seenOrder = append(b.seenOrder, id)
	if len(b.seenOrder) > remoteSeenSize {
		delete(b.seen, b.seenOrder[0])
		b.seenOrder = b.seenOrder[1:]
	}
	return true
}
