package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/hiragana-drop/internal/config"
	"github.com/DoyleJ11/hiragana-drop/internal/history"
	"github.com/DoyleJ11/hiragana-drop/internal/httpapi"
	"github.com/DoyleJ11/hiragana-drop/internal/hub"
	"github.com/DoyleJ11/hiragana-drop/internal/lobby"
	"github.com/DoyleJ11/hiragana-drop/internal/logging"
	"github.com/DoyleJ11/hiragana-drop/internal/words"
	"github.com/DoyleJ11/hiragana-drop/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := words.Load(cfg.WordsFile)
	if err != nil {
		return fmt.Errorf("load words: %w", err)
	}
	store, err := history.New(ctx, history.Options{
		Backend:     cfg.HistoryBackend,
		RedisURL:    cfg.RedisURL,
		DatabaseURL: cfg.DatabaseURL,
		Limit:       cfg.HistoryLimit,
		TTL:         cfg.HistoryTTL,
	})
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	// The hub outlives the signal context so it can be stopped in order.
	h := hub.NewHub(context.WithoutCancel(ctx), lobby.Options{
		Board:         cfg.Board(),
		Words:         catalog,
		FrameInterval: cfg.FrameInterval,
		History:       store,
		Log:           log,
	})

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(h, store, httpapi.Options{
		WS:           ws.Options{OriginPatterns: cfg.AllowedOrigins, Log: log},
		Log:          log,
		HistoryLimit: cfg.HistoryLimit,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.Int("words", catalog.Len()), zap.String("history", cfg.HistoryBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting_down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		// Websocket sessions are hijacked, so Shutdown does not wait for
		// them. Stopping the lobbies closes their outboxes.
		done := make(chan struct{})
		h.Inbox() <- hub.ShutdownHub{Done: done}
		<-done
		return err
	})
	return g.Wait()
}
