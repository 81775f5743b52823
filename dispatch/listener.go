package dispatch

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// HandlerFunc processes a single fan-out message. Returning an error
// nacks the message so the broker redelivers it; handlers are expected
// to be idempotent.
type HandlerFunc func(ctx context.Context, payload string) error

// Listener binds topics to handlers and pumps subscription messages
// into them, one worker subscription per topic.
type Listener struct {
	client   *pubsub.Client
	log      *zap.Logger
	handlers map[string]HandlerFunc
}

// NewListener constructs a Listener. Register handlers with Handle
// before calling Run.
func NewListener(client *pubsub.Client, log *zap.Logger) *Listener {
	return &Listener{
		client:   client,
		log:      log,
		handlers: make(map[string]HandlerFunc),
	}
}

// Handle registers h as the consumer for topic.
func (l *Listener) Handle(topic string, h HandlerFunc) {
	l.handlers[topic] = h
}

// Run ensures a subscription per registered topic and receives until
// ctx is canceled or a subscription fails hard.
func (l *Listener) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for topic, handler := range l.handlers {
		sub, err := l.subscription(ctx, topic)
		if err != nil {
			return fmt.Errorf("preparing subscription for topic %q: %w", topic, err)
		}

		topic, handler := topic, handler
		g.Go(func() error {
			l.log.Info("listening", zap.String("topic", topic))
			err := sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
				if err := handler(ctx, string(m.Data)); err != nil {
					l.log.Error("handler failed",
						zap.String("topic", topic),
						zap.Error(err))
					m.Nack()
					return
				}
				m.Ack()
			})
			if err != nil {
				return fmt.Errorf("receiving on topic %q: %w", topic, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// subscription returns the worker subscription for topic, creating the
// topic and subscription when missing.
func (l *Listener) subscription(ctx context.Context, topic string) (*pubsub.Subscription, error) {
	t, err := l.client.CreateTopic(ctx, topic)
	switch {
	case err == nil:
	case status.Code(err) == codes.AlreadyExists:
		t = l.client.Topic(topic)
	default:
		return nil, err
	}

	name := topic + "-worker"
	sub, err := l.client.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{Topic: t})
	switch {
	case err == nil:
		return sub, nil
	case status.Code(err) == codes.AlreadyExists:
		return l.client.Subscription(name), nil
	default:
		return nil, err
	}
}
