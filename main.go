// Command bluekun
//
// Chatwork bot that keeps a watch list of keywords. Room members talk
// to it in plain Japanese ("ブルーくん、phpを追加して") and it tracks
// security advisories mentioning the watched words.
//
// Required environment: CHATWORK_WEBHOOK_TOKEN, CHATWORK_API_TOKEN,
// CHATWORK_CHATROOM_ID and GOOGLE_PROJECT_ID. A local .env file is
// picked up when present.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/datastore"
	"cloud.google.com/go/pubsub"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gobridge-ja/bluekun/advisories"
	"github.com/gobridge-ja/bluekun/chatwork"
	"github.com/gobridge-ja/bluekun/dispatch"
	"github.com/gobridge-ja/bluekun/intent"
	"github.com/gobridge-ja/bluekun/notify"
	"github.com/gobridge-ja/bluekun/webhook"
	"github.com/gobridge-ja/bluekun/words"
)

const helpText = `使い方
「ブルーくん、<言葉>を追加して」で監視する言葉を追加
「ブルーくん、<言葉>を削除して」で監視する言葉を削除
「ブルーくん、対象言葉みせて」で監視中の言葉を一覧
「ブルーくん、使い方教えて」でこの使い方を表示`

var defaultFeeds = []string{
	"https://jvndb.jvn.jp/ja/rss/jvndb_new.rdf",
	"https://www.jpcert.or.jp/rss/jpcert.rdf",
}

type config struct {
	WebhookToken  string
	APIToken      string
	RoomID        string
	ProjectID     string
	Prefix        string
	Addr          string
	Feeds         []string
	CheckInterval time.Duration
	DevMode       bool
}

func loadConfig() (*config, error) {
	// Optional .env for local runs; in production everything comes
	// from the real environment.
	_ = godotenv.Load()

	cfg := &config{
		WebhookToken: os.Getenv("CHATWORK_WEBHOOK_TOKEN"),
		APIToken:     os.Getenv("CHATWORK_API_TOKEN"),
		RoomID:       os.Getenv("CHATWORK_CHATROOM_ID"),
		ProjectID:    os.Getenv("GOOGLE_PROJECT_ID"),
		Prefix:       os.Getenv("BLUEKUN_PREFIX"),
		Addr:         os.Getenv("BLUEKUN_ADDR"),
		DevMode:      os.Getenv("BLUEKUN_DEV_MODE") == "true",
	}

	required := map[string]string{
		"CHATWORK_WEBHOOK_TOKEN": cfg.WebhookToken,
		"CHATWORK_API_TOKEN":     cfg.APIToken,
		"CHATWORK_CHATROOM_ID":   cfg.RoomID,
		"GOOGLE_PROJECT_ID":      cfg.ProjectID,
	}
	for k, v := range required {
		if v == "" {
			return nil, fmt.Errorf("%s is required", k)
		}
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	cfg.Feeds = defaultFeeds
	if feeds := os.Getenv("BLUEKUN_FEEDS"); feeds != "" {
		cfg.Feeds = strings.Split(feeds, ",")
	}

	cfg.CheckInterval = 24 * time.Hour
	if interval := os.Getenv("BLUEKUN_CHECK_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("parsing BLUEKUN_CHECK_INTERVAL: %w", err)
		}
		cfg.CheckInterval = d
	}

	return cfg, nil
}

func main() {
	seedWords := flag.String("seed", "", "comma-separated words to preload into the store, then exit")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("configuration error", zap.Error(err))
	}

	verifier, err := webhook.NewVerifier(cfg.WebhookToken)
	if err != nil {
		logger.Fatal("configuration error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsClient, err := datastore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		logger.Fatal("connecting to datastore", zap.Error(err))
	}
	defer dsClient.Close()

	psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		logger.Fatal("connecting to pub/sub", zap.Error(err))
	}
	defer psClient.Close()

	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   15 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	pub := dispatch.NewPubSub(psClient)
	defer pub.Stop()

	notifier := notify.New(pub)
	store := words.NewGCPStore(dsClient)
	svc := words.NewService(store, notifier, logger)

	if *seedWords != "" {
		if err := svc.Seed(ctx, strings.Split(*seedWords, ",")); err != nil {
			logger.Fatal("seeding words", zap.Error(err))
		}
		logger.Info("seeded watch list", zap.String("words", *seedWords))
		return
	}

	api := chatwork.New(httpClient, cfg.APIToken)

	listener := dispatch.NewListener(psClient, logger)
	listener.Handle(dispatch.TopicAddWord, svc.AddWord)
	listener.Handle(dispatch.TopicRemoveWord, svc.RemoveWord)
	listener.Handle(dispatch.TopicGetWords, func(ctx context.Context, _ string) error {
		return svc.ListWords(ctx)
	})
	listener.Handle(dispatch.TopicHelp, func(ctx context.Context, _ string) error {
		return notifier.Notify(ctx, helpText)
	})
	listener.Handle(dispatch.TopicSendMessage, func(ctx context.Context, msg string) error {
		if cfg.DevMode {
			logger.Info("dev mode, not sending", zap.String("message", msg))
			return nil
		}
		return api.PostMessage(ctx, cfg.RoomID, msg)
	})

	router := dispatch.NewRouter(pub, logger)
	hook := webhook.NewHandler(verifier, intent.NewExtractor(cfg.Prefix), router, logger)

	r := mux.NewRouter()
	r.Handle("/webhook", hook).Methods(http.MethodPost)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	sources := make([]advisories.Source, 0, len(cfg.Feeds))
	for _, u := range cfg.Feeds {
		sources = append(sources, advisories.NewFeedSource(strings.TrimSpace(u), httpClient))
	}
	monitor := advisories.New(sources, store, notifier, logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listener.Run(ctx)
	})
	g.Go(func() error {
		monitorAdvisories(ctx, monitor, cfg.CheckInterval, logger)
		return nil
	})
	g.Go(func() error {
		logger.Info("listening for webhooks", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("exiting", zap.Error(err))
	}
	logger.Info("shut down")
}

// monitorAdvisories runs the advisory check on a fixed interval until
// ctx is canceled. A failed run is logged and the next tick tries
// again; there is no internal retry.
func monitorAdvisories(ctx context.Context, m *advisories.Monitor, every time.Duration, logger *zap.Logger) {
	tk := time.NewTicker(every)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			if err := m.Run(ctx); err != nil {
				logger.Error("advisory check failed", zap.Error(err))
			}
		}
	}
}
