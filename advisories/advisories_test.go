package advisories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSource struct {
	items []Item
	err   error
}

func (s stubSource) Fetch(context.Context) ([]Item, error) {
	return s.items, s.err
}

type stubWords struct {
	names []string
	err   error
}

func (s stubWords) List(context.Context) ([]string, error) {
	return s.names, s.err
}

type stubNotifier struct {
	messages []string
	err      error
}

func (s *stubNotifier) Notify(_ context.Context, text string) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, text)
	return nil
}

func newMonitor(sources []Source, words WordLister, n Notifier, now time.Time) *Monitor {
	m := New(sources, words, n, zap.NewNop())
	m.now = func() time.Time { return now }
	return m
}

func TestWindow(t *testing.T) {
	t.Run("midweek reaches back one day to the cutoff", func(t *testing.T) {
		// Wednesday 2024-01-17 15:30 UTC
		now := time.Date(2024, 1, 17, 15, 30, 0, 0, time.UTC)
		m := newMonitor(nil, stubWords{}, &stubNotifier{}, now)

		since, upper := m.window()
		assert.Equal(t, time.Date(2024, 1, 16, 10, 0, 0, 0, time.UTC), since)
		assert.Equal(t, now, upper)
	})

	t.Run("monday reaches back to friday's cutoff", func(t *testing.T) {
		// Monday 2024-01-15 11:00 UTC
		now := time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC)
		m := newMonitor(nil, stubWords{}, &stubNotifier{}, now)

		since, _ := m.window()
		assert.Equal(t, time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC), since)
	})

	t.Run("lower bound is anchored at the cutoff hour regardless of tick time", func(t *testing.T) {
		now := time.Date(2024, 1, 17, 9, 5, 0, 0, time.UTC)
		m := newMonitor(nil, stubWords{}, &stubNotifier{}, now)

		since, _ := m.window()
		assert.Equal(t, 10, since.Hour())
		assert.Equal(t, 0, since.Minute())
	})
}

func TestRun(t *testing.T) {
	// Wednesday afternoon; the window is [Tue 10:00, now).
	now := time.Date(2024, 1, 17, 15, 0, 0, 0, time.UTC)

	t.Run("keeps only recent items with a tracked keyword", func(t *testing.T) {
		src := stubSource{items: []Item{
			{Title: "php advisory, too old", Link: "https://example.com/1", PublishedAt: now.Add(-48 * time.Hour)},
			{Title: "php remote code execution", Link: "https://example.com/2", PublishedAt: now.Add(-12 * time.Hour)},
			{Title: "php item from the future", Link: "https://example.com/3", PublishedAt: now.Add(time.Hour)},
			{Title: "cobol nobody watches", Link: "https://example.com/4", PublishedAt: now.Add(-12 * time.Hour)},
		}}
		n := &stubNotifier{}
		m := newMonitor([]Source{src}, stubWords{names: []string{"php", "rust"}}, n, now)

		require.NoError(t, m.Run(context.Background()))
		require.Len(t, n.messages, 1)
		assert.Contains(t, n.messages[0], "php remote code execution")
		assert.Contains(t, n.messages[0], "https://example.com/2")
		assert.NotContains(t, n.messages[0], "example.com/1")
		assert.NotContains(t, n.messages[0], "example.com/3")
		assert.NotContains(t, n.messages[0], "cobol")
	})

	t.Run("keyword match is case-sensitive", func(t *testing.T) {
		src := stubSource{items: []Item{
			{Title: "PHP advisory", Link: "https://example.com/1", PublishedAt: now.Add(-time.Hour)},
		}}
		n := &stubNotifier{}
		m := newMonitor([]Source{src}, stubWords{names: []string{"php"}}, n, now)

		require.NoError(t, m.Run(context.Background()))
		assert.Empty(t, n.messages)
	})

	t.Run("no matches means no notification", func(t *testing.T) {
		n := &stubNotifier{}
		m := newMonitor([]Source{stubSource{}}, stubWords{names: []string{"php"}}, n, now)

		require.NoError(t, m.Run(context.Background()))
		assert.Empty(t, n.messages)
	})

	t.Run("one failing source does not abort its siblings", func(t *testing.T) {
		good := stubSource{items: []Item{
			{Title: "rust advisory", Link: "https://example.com/r", PublishedAt: now.Add(-time.Hour)},
		}}
		bad := stubSource{err: errors.New("connection refused")}
		n := &stubNotifier{}
		m := newMonitor([]Source{bad, good}, stubWords{names: []string{"rust"}}, n, now)

		require.NoError(t, m.Run(context.Background()))
		require.Len(t, n.messages, 1)
		assert.Contains(t, n.messages[0], "rust advisory")
	})

	t.Run("a watch list failure aborts the run", func(t *testing.T) {
		broken := errors.New("store down")
		n := &stubNotifier{}
		m := newMonitor([]Source{stubSource{}}, stubWords{err: broken}, n, now)

		err := m.Run(context.Background())
		require.ErrorIs(t, err, broken)
		assert.Empty(t, n.messages)
	})

	t.Run("merges matches from every source into one message", func(t *testing.T) {
		a := stubSource{items: []Item{
			{Title: "php advisory", Link: "https://example.com/a", PublishedAt: now.Add(-time.Hour)},
		}}
		b := stubSource{items: []Item{
			{Title: "rust advisory", Link: "https://example.com/b", PublishedAt: now.Add(-2 * time.Hour)},
		}}
		n := &stubNotifier{}
		m := newMonitor([]Source{a, b}, stubWords{names: []string{"php", "rust"}}, n, now)

		require.NoError(t, m.Run(context.Background()))
		require.Len(t, n.messages, 1)
		assert.Contains(t, n.messages[0], "php advisory")
		assert.Contains(t, n.messages[0], "rust advisory")
	})
}
