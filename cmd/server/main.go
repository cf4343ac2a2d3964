package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pinghanh/ledgerbot/internal/bot"
	"github.com/pinghanh/ledgerbot/internal/config"
	"github.com/pinghanh/ledgerbot/internal/line"
	"github.com/pinghanh/ledgerbot/internal/session"
	"github.com/pinghanh/ledgerbot/internal/storage/sqlite"
	"github.com/pinghanh/ledgerbot/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional; env vars always apply)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Bot.LogLevel)

	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", cfg.DB.Path)

	api, err := line.NewAPI(cfg.Line.ChannelSecret, cfg.Line.ChannelToken)
	if err != nil {
		slog.Error("failed to initialize LINE client", "error", err)
		os.Exit(1)
	}

	// The bot's own id keeps it out of settlement rosters. Not fatal when
	// the API is unreachable at boot; rosters then simply include nothing
	// extra to filter.
	botUserID := ""
	if info, err := api.GetBotInfo().Do(); err != nil {
		slog.Warn("failed to fetch bot info", "error", err)
	} else {
		botUserID = info.UserID
	}

	sessions := session.New(cfg.Bot.SessionTTL, nil)
	b := bot.New(store, line.NewDirectory(api), sessions, bot.Options{
		DefaultHeadcount: cfg.Bot.DefaultHeadcount,
		BotUserID:        botUserID,
	})

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Method(http.MethodPost, "/callback", line.NewWebhook(api, b))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		slog.Info("server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
