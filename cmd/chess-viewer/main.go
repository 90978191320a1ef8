package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kevoconnell/chess-engine-llm-frontend/internal/adapter/viewpresenter"
	appcfg "github.com/kevoconnell/chess-engine-llm-frontend/internal/config"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/msgcat"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/obslog"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/render"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/server"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/stream"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/theme"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/userid"
	"github.com/kevoconnell/chess-engine-llm-frontend/internal/viewer"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config_error", zap.Error(err))
	}
	th, err := theme.Load(cfg.ThemeFile)
	if err != nil {
		logger.Fatal("theme_error", zap.Error(err))
	}
	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		logger.Fatal("messages_error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ids, closeStore := newUserIDProvider(ctx, cfg, logger)
	defer closeStore()
	userID, err := ids.UserID(ctx)
	if err != nil {
		logger.Warn("user_id_unavailable", zap.Error(err))
	}

	session := viewer.New(viewer.Options{
		Theme:     th,
		Renderer:  render.NewPNGRenderer(th),
		Presenter: viewpresenter.New(cat),
		Logger:    obslog.Named("viewer"),
		UserID:    userID,
		DropDelay: th.AnimationDuration(),
	})
	go func() {
		if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("session_stopped", zap.Error(err))
		}
	}()
	defer session.Close()

	client := stream.NewClient(cfg.ServerBaseURL,
		stream.WithDialTimeout(cfg.StreamDialTimeout),
		stream.WithHeaderProvider(func() map[string]string { return ids.Header(ctx) }),
		stream.WithLogger(obslog.Named("stream")),
	)
	client.OnStateChange(session.HandleStreamState)
	latest := stream.NewLatest()
	latest.OnChange(session.HandleSnapshot)
	sub := client.Subscribe(ctx, latest)
	defer sub.Close()

	e := server.New(server.NewHandlers(session, obslog.Named("http")))
	go func() {
		logger.Info("http_listen", zap.String("addr", cfg.ListenAddr), zap.String("upstream", cfg.ServerBaseURL))
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")
	if err := server.Shutdown(e, 5*time.Second); err != nil {
		logger.Warn("http_shutdown_error", zap.Error(err))
	}
}

func newUserIDProvider(ctx context.Context, cfg *appcfg.AppConfig, logger *zap.Logger) (*userid.Provider, func()) {
	if cfg.RedisURL == "" {
		return userid.NewProvider(userid.NewMemoryStore(), cfg.UserIDKey, logger), func() {}
	}
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	store, err := userid.NewRedisStoreFromURL(dialCtx, cfg.RedisURL)
	if err != nil {
		logger.Warn("redis_unavailable_using_memory", zap.Error(err))
		return userid.NewProvider(userid.NewMemoryStore(), cfg.UserIDKey, logger), func() {}
	}
	return userid.NewProvider(store, cfg.UserIDKey, logger), func() { _ = store.Close() }
}
