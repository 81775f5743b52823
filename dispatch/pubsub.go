package dispatch

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PubSub implements Publisher on top of Google Cloud Pub/Sub.
type PubSub struct {
	client *pubsub.Client

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPubSub constructs a *PubSub.
func NewPubSub(client *pubsub.Client) *PubSub {
	return &PubSub{
		client: client,
		topics: make(map[string]*pubsub.Topic),
	}
}

// Publish resolves the topic and publishes message to it, waiting for
// the server acknowledgment. Delivery past the acknowledgment is the
// subscriber's problem.
func (p *PubSub) Publish(ctx context.Context, topic, message string) error {
	t, err := p.topic(ctx, topic)
	if err != nil {
		return fmt.Errorf("resolving topic %q: %w", topic, err)
	}

	if _, err := t.Publish(ctx, &pubsub.Message{Data: []byte(message)}).Get(ctx); err != nil {
		return fmt.Errorf("publishing to topic %q: %w", topic, err)
	}
	return nil
}

// topic returns the named topic, creating it on first use. Losing a
// create race to another instance is fine, the existing topic is used.
func (p *PubSub) topic(ctx context.Context, name string) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.topics[name]; ok {
		return t, nil
	}

	t, err := p.client.CreateTopic(ctx, name)
	switch {
	case err == nil:
	case status.Code(err) == codes.AlreadyExists:
		t = p.client.Topic(name)
	default:
		return nil, err
	}

	p.topics[name] = t
	return t, nil
}

// Stop flushes any outstanding publishes. Call on shutdown.
func (p *PubSub) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.topics {
		t.Stop()
	}
}
