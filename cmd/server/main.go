package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/list-subscriptions/internal/api"
	"github.com/ignite/list-subscriptions/internal/config"
	"github.com/ignite/list-subscriptions/internal/identity"
	"github.com/ignite/list-subscriptions/internal/mailchimp"
	"github.com/ignite/list-subscriptions/internal/pkg/logger"
	"github.com/ignite/list-subscriptions/internal/service/subscription"
	"github.com/ignite/list-subscriptions/internal/version"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %w", addr, err)
	}
	ln.Close()
	return nil
}

// connectRedis opens and pings the session store. An empty URL means no
// Redis and returns a nil client.
func connectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

func fatal(msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		fatal("failed to load config", err)
	}
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.ShouldRedact()); err != nil {
		fatal("invalid logging config", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("invalid config", err)
	}

	info := version.Get()
	logger.Info("starting list subscription server", "version", info.Version, "commit", info.GitCommit)

	addr := cfg.Server.Addr()
	if err := checkPortAvailable(addr); err != nil {
		fatal("pre-flight check failed", err)
	}

	redisClient, err := connectRedis(context.Background(), cfg.Redis.URL)
	if err != nil {
		fatal("failed to connect to redis", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.Info("connected to redis")
	}

	identities, err := identity.New(cfg.Identity, redisClient)
	if err != nil {
		fatal("failed to build identity provider", err)
	}

	client := mailchimp.NewClient(cfg.MailChimp)
	gateway := subscription.NewService(client)
	health := api.NewHealthChecker(client, redisClient)

	server := api.NewServer(cfg.Server, gateway, identities, health)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("listening", "addr", addr, "identity_mode", cfg.Identity.Mode, "max_retries", cfg.MailChimp.MaxRetries)
		if err := server.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	<-done
	logger.Info("shutting down")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
