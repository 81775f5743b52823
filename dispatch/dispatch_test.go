package dispatch

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/gobridge-ja/bluekun/intent"
)

type fakePublisher struct {
	topics   []string
	payloads []string
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, topic, message string) error {
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, message)
	return nil
}

func TestDispatch(t *testing.T) {
	dispatch := func(t *testing.T, cmd intent.Command) *fakePublisher {
		t.Helper()
		pub := &fakePublisher{}
		r := NewRouter(pub, zap.NewNop())
		if err := r.Dispatch(context.Background(), cmd); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return pub
	}

	t.Run("add publishes the word to addWord", func(t *testing.T) {
		pub := dispatch(t, intent.Command{Kind: intent.AddWord, Word: "php"})
		if len(pub.topics) != 1 || pub.topics[0] != TopicAddWord || pub.payloads[0] != "php" {
			t.Errorf("expected one publish of %q to %q, got %v %v", "php", TopicAddWord, pub.topics, pub.payloads)
		}
	})

	t.Run("remove publishes the word to removeWord", func(t *testing.T) {
		pub := dispatch(t, intent.Command{Kind: intent.RemoveWord, Word: "rust"})
		if len(pub.topics) != 1 || pub.topics[0] != TopicRemoveWord || pub.payloads[0] != "rust" {
			t.Errorf("expected one publish of %q to %q, got %v %v", "rust", TopicRemoveWord, pub.topics, pub.payloads)
		}
	})

	t.Run("help publishes a sentinel to help", func(t *testing.T) {
		pub := dispatch(t, intent.Command{Kind: intent.Help})
		if len(pub.topics) != 1 || pub.topics[0] != TopicHelp {
			t.Errorf("expected one publish to %q, got %v", TopicHelp, pub.topics)
		}
	})

	t.Run("list publishes a sentinel to getWords", func(t *testing.T) {
		pub := dispatch(t, intent.Command{Kind: intent.ListWords})
		if len(pub.topics) != 1 || pub.topics[0] != TopicGetWords {
			t.Errorf("expected one publish to %q, got %v", TopicGetWords, pub.topics)
		}
	})

	t.Run("noop publishes nothing", func(t *testing.T) {
		pub := dispatch(t, intent.Command{Kind: intent.NoOp})
		if len(pub.topics) != 0 {
			t.Errorf("expected no publishes, got %v", pub.topics)
		}
	})

	t.Run("publish failures are surfaced", func(t *testing.T) {
		broken := errors.New("broker down")
		pub := &fakePublisher{err: broken}
		r := NewRouter(pub, zap.NewNop())
		err := r.Dispatch(context.Background(), intent.Command{Kind: intent.AddWord, Word: "php"})
		if !errors.Is(err, broken) {
			t.Errorf("expected wrapped broker error, got %v", err)
		}
	})
}
