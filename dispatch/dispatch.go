// Package dispatch fans commands and replies out over named pub/sub
// topics, decoupling command recognition from command execution and
// from reply delivery.
package dispatch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gobridge-ja/bluekun/intent"
)

// Topic names. The set is fixed; each topic has exactly one consumer.
const (
	TopicSendMessage = "sendMessage"
	TopicAddWord     = "addWord"
	TopicRemoveWord  = "removeWord"
	TopicGetWords    = "getWords"
	TopicHelp        = "help"
)

// Publisher publishes a message to a named topic. Topic resolution is
// get-or-create: publishing to a topic that does not exist yet must
// create it, and creating it twice must not fail.
type Publisher interface {
	Publish(ctx context.Context, topic, message string) error
}

// Router maps extracted commands to their fan-out topic and publishes
// the command payload there.
type Router struct {
	pub Publisher
	log *zap.Logger
}

// NewRouter constructs a Router publishing through pub.
func NewRouter(pub Publisher, log *zap.Logger) *Router {
	return &Router{pub: pub, log: log}
}

// Dispatch publishes exactly one message for a recognized command and
// nothing for NoOp. The payload is the word for add/remove and the
// command name for help/list.
func (r *Router) Dispatch(ctx context.Context, cmd intent.Command) error {
	topic, payload, ok := route(cmd)
	if !ok {
		return nil
	}

	r.log.Info("dispatching command",
		zap.String("command", cmd.Kind.String()),
		zap.String("topic", topic))

	if err := r.pub.Publish(ctx, topic, payload); err != nil {
		return fmt.Errorf("dispatching %s to topic %q: %w", cmd.Kind, topic, err)
	}
	return nil
}

func route(cmd intent.Command) (topic, payload string, ok bool) {
	switch cmd.Kind {
	case intent.Help:
		return TopicHelp, "help", true
	case intent.AddWord:
		return TopicAddWord, cmd.Word, true
	case intent.RemoveWord:
		return TopicRemoveWord, cmd.Word, true
	case intent.ListWords:
		return TopicGetWords, "getWords", true
	default:
		return "", "", false
	}
}
