// Package advisories polls security-advisory feeds and forwards
// entries matching the watch list to the chat room.
package advisories

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// Item is a single advisory entry from a feed.
type Item struct {
	Title       string
	Link        string
	PublishedAt time.Time
}

// Source retrieves advisory items.
type Source interface {
	Fetch(ctx context.Context) ([]Item, error)
}

// FeedSource fetches one RSS/Atom/RDF feed by URL.
type FeedSource struct {
	url    string
	parser *gofeed.Parser
}

// NewFeedSource constructs a *FeedSource fetching through client.
func NewFeedSource(url string, client *http.Client) *FeedSource {
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = "bluekun advisory monitor"
	return &FeedSource{url: url, parser: parser}
}

func (f *FeedSource) Fetch(ctx context.Context) ([]Item, error) {
	feed, err := f.parser.ParseURLWithContext(f.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching feed %q: %w", f.url, err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		when := it.PublishedParsed
		if when == nil {
			when = it.UpdatedParsed
		}
		if when == nil {
			continue
		}
		items = append(items, Item{
			Title:       it.Title,
			Link:        it.Link,
			PublishedAt: when.UTC(),
		})
	}
	return items, nil
}

// WordLister reads the current watch list.
type WordLister interface {
	List(ctx context.Context) ([]string, error)
}

// Notifier posts the combined advisory report to the chat room.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Monitor runs one advisory check per scheduler tick. It keeps no
// state between ticks beyond the externally owned watch list.
type Monitor struct {
	sources  []Source
	words    WordLister
	notifier Notifier
	log      *zap.Logger

	cutoffHour int
	weekStart  time.Weekday
	now        func() time.Time
}

// New constructs a *Monitor with the 10:00 UTC cutoff and a Monday
// week start.
func New(sources []Source, words WordLister, notifier Notifier, log *zap.Logger) *Monitor {
	return &Monitor{
		sources:  sources,
		words:    words,
		notifier: notifier,
		log:      log,

		cutoffHour: 10,
		weekStart:  time.Monday,
		now:        time.Now,
	}
}

// window returns the [since, now) range of publish times to report on.
// The lower bound is anchored at cutoffHour UTC. On the first weekday
// after the weekend it reaches back to the previous business day so
// entries published over the weekend are not lost; every other day it
// reaches back exactly one day.
func (m *Monitor) window() (since, now time.Time) {
	now = m.now().UTC()

	days := 1
	if now.Weekday() == m.weekStart {
		days = 3
	}

	prev := now.AddDate(0, 0, -days)
	since = time.Date(prev.Year(), prev.Month(), prev.Day(), m.cutoffHour, 0, 0, 0, time.UTC)
	return since, now
}

// Run performs one full cycle: read the watch list, retrieve all
// sources, filter by recency and keyword, and post one combined
// message. No matches means no message.
func (m *Monitor) Run(ctx context.Context) error {
	since, now := m.window()

	keywords, err := m.words.List(ctx)
	if err != nil {
		return fmt.Errorf("reading watch list: %w", err)
	}

	items := m.fetchAll(ctx)

	var lines []string
	for _, it := range items {
		if it.PublishedAt.Before(since) || !it.PublishedAt.Before(now) {
			continue
		}
		if !matchesAny(it.Title, keywords) {
			continue
		}
		lines = append(lines, it.Title+"\n"+it.Link)
	}

	if len(lines) == 0 {
		m.log.Debug("no matching advisories",
			zap.Time("since", since),
			zap.Int("fetched", len(items)))
		return nil
	}

	m.log.Info("reporting advisories", zap.Int("matches", len(lines)))
	return m.notifier.Notify(ctx, strings.Join(lines, "\n"))
}

// fetchAll retrieves every source concurrently and merges the results.
// A failing source is logged and skipped; its siblings still count.
func (m *Monitor) fetchAll(ctx context.Context) []Item {
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		items []Item
	)

	for _, src := range m.sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			got, err := src.Fetch(ctx)
			if err != nil {
				m.log.Warn("skipping feed source", zap.Error(err))
				return
			}
			mu.Lock()
			items = append(items, got...)
			mu.Unlock()
		}(src)
	}

	wg.Wait()
	return items
}

// matchesAny reports whether title contains at least one keyword as an
// exact, case-sensitive substring.
func matchesAny(title string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}
