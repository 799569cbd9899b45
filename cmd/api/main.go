package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Atim-01/devblog/internal/config"
	"github.com/Atim-01/devblog/internal/feed"
	"github.com/Atim-01/devblog/internal/handler"
	"github.com/Atim-01/devblog/internal/repository"
	"github.com/Atim-01/devblog/internal/scheduler"
	"github.com/Atim-01/devblog/internal/service"
	"github.com/Atim-01/devblog/internal/utils/email"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStore()
	logger.Infof("Using %s storage", cfg.Storage)

	// Initialize layers
	svc, err := service.NewService(store, logger, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize service: %v", err)
	}
	rss, err := feed.New(svc, logger, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize feed: %v", err)
	}
	svc.WithNotifier(rss)

	var sender *email.Sender
	if cfg.MailEnabled() {
		sender = email.NewSender(cfg, logger)
		svc.WithNotifier(sender)
		logger.Infof("Mail notifications enabled for %s", cfg.NotifyEmail)
	}

	jobs := scheduler.New(logger, 30*time.Second)
	if err := jobs.Add(cfg.FeedRefresh, "feed", rss.Refresh); err != nil {
		logger.Fatalf("Failed to schedule feed refresh: %v", err)
	}

	h := handler.NewHandler(svc, rss, logger)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      h.Router(cfg.CORSOrigin),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return jobs.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("Server stopped with error: %v", err)
	}
	if sender != nil && !sender.Wait(10*time.Second) {
		logger.Warn("Pending notifications were not delivered before exit")
	}
	logger.Info("Server stopped")
}

// openStore returns the configured backend and a function that releases it
func openStore(ctx context.Context, cfg *config.Config) (service.Store, func(), error) {
	if cfg.Storage == config.StorageMemory {
		return repository.NewMemoryRepository(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	repo := repository.NewRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return repo, func() { db.Close() }, nil
}
