// Package words owns the watch list: the set of keywords the bot
// tracks for chat commands and advisory matching.
package words

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Conflict outcomes of a conditional mutation. These are expected
// results, not failures; callers turn them into chat replies.
var (
	ErrExists   = errors.New("word already registered")
	ErrNotFound = errors.New("word not registered")
)

// Notifier delivers a reply message to the chat room.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Service executes the keyword commands. Every operation is a single
// conditional store mutation followed by a notification; conflicts are
// reported to the room like any other outcome.
type Service struct {
	store    Store
	notifier Notifier
	log      *zap.Logger
}

// NewService constructs a *Service.
func NewService(store Store, notifier Notifier, log *zap.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		log:      log,
	}
}

// AddWord registers word if absent and reports the outcome.
func (s *Service) AddWord(ctx context.Context, word string) error {
	err := s.store.Put(ctx, word)
	switch {
	case err == nil:
		s.log.Info("word added", zap.String("word", word))
		return s.notifier.Notify(ctx, word+"を追加したよ")
	case errors.Is(err, ErrExists):
		return s.notifier.Notify(ctx, word+"はもう登録されてるよ")
	default:
		return fmt.Errorf("adding word %q: %w", word, err)
	}
}

// RemoveWord unregisters word if present and reports the outcome.
func (s *Service) RemoveWord(ctx context.Context, word string) error {
	err := s.store.Delete(ctx, word)
	switch {
	case err == nil:
		s.log.Info("word removed", zap.String("word", word))
		return s.notifier.Notify(ctx, word+"を削除したよ")
	case errors.Is(err, ErrNotFound):
		return s.notifier.Notify(ctx, word+"は登録されてないよ")
	default:
		return fmt.Errorf("removing word %q: %w", word, err)
	}
}

// ListWords reports the current watch list, one word per line under a
// header. An empty list still gets the header.
func (s *Service) ListWords(ctx context.Context) error {
	names, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("listing words: %w", err)
	}
	return s.notifier.Notify(ctx, "今監視してる言葉はこれだよ\n"+strings.Join(names, "\n"))
}

// Seed preloads the watch list with names, skipping any that are
// already registered. No notifications are sent.
func (s *Service) Seed(ctx context.Context, names []string) error {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		err := s.store.Put(ctx, name)
		if err != nil && !errors.Is(err, ErrExists) {
			return fmt.Errorf("seeding word %q: %w", name, err)
		}
	}
	return nil
}
