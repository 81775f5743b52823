// Package notify formats chat replies and hands them to the outbound
// fan-out topic. Actual delivery to the room happens in the
// sendMessage consumer.
package notify

import (
	"context"
	"fmt"

	"github.com/gobridge-ja/bluekun/dispatch"
)

// DefaultTitle is the name the bot signs its messages with.
const DefaultTitle = "ブルーくん"

// Notifier wraps free text in the Chatwork info template and publishes
// it to the sendMessage topic. It never retries; redelivery is the
// broker's job.
type Notifier struct {
	pub   dispatch.Publisher
	title string
}

// New constructs a *Notifier signing messages with DefaultTitle.
func New(pub dispatch.Publisher) *Notifier {
	return &Notifier{pub: pub, title: DefaultTitle}
}

// Notify publishes text wrapped in the presentation template.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	msg := "[info][title]" + n.title + "[/title]" + text + "[/info]"
	if err := n.pub.Publish(ctx, dispatch.TopicSendMessage, msg); err != nil {
		return fmt.Errorf("publishing notification: %w", err)
	}
	return nil
}
