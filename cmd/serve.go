package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"news-hierarchy/cache"
	"news-hierarchy/config"
	"news-hierarchy/database"
	"news-hierarchy/handlers"
	"news-hierarchy/hierarchy"
	"news-hierarchy/logger"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database, logger.Component("database"))
	if err != nil {
		return err
	}
	defer database.Close(db)

	trees, lists, err := newCaches(ctx, cfg.Cache)
	if err != nil {
		return err
	}

	engine := hierarchy.NewEngine(db, cfg.Database.QueryTimeout)
	svc := hierarchy.NewService(engine, trees, lists, hierarchy.Options{
		DefaultTimeFilter: cfg.Hierarchy.DefaultTimeFilter,
		MaxWindow:         cfg.Hierarchy.MaxWindow,
	}, logger.Component("hierarchy"))

	gin.SetMode(cfg.Server.Mode)
	h := handlers.New(svc, engine.Ping, logger.Component("http"))
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handlers.NewRouter(h, logger.Component("http")),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if configPath != "" {
		err := config.Watch(configPath, func(next *config.Config) {
			logger.SetLevel(next.Logging.Level)
			log.Info().Str("level", next.Logging.Level).Msg("config reloaded")
		}, func(err error) {
			log.Warn().Err(err).Msg("ignoring invalid config change")
		})
		if err != nil {
			log.Warn().Err(err).Msg("config hot reload disabled")
		}
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.Addr).
			Str("cache", cfg.Cache.Backend).
			Dur("cache_ttl", trees.TTL()).
			Msg("starting news hierarchy server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newCaches builds the tree and listing caches on the configured backend.
func newCaches(ctx context.Context, cfg config.CacheConfig) (*cache.Cache[*hierarchy.Tree], *cache.Cache[*hierarchy.Listing], error) {
	log := logger.Component("cache")

	switch cfg.Backend {
	case "redis":
		client, err := cache.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return cache.New[*hierarchy.Tree](cache.NewRedisStore[*hierarchy.Tree](client, cfg.KeyPrefix), cfg.TTL, log),
			cache.New[*hierarchy.Listing](cache.NewRedisStore[*hierarchy.Listing](client, cfg.KeyPrefix), cfg.TTL, log),
			nil
	default:
		return cache.New[*hierarchy.Tree](cache.NewMemoryStore[*hierarchy.Tree](cfg.MaxEntries), cfg.TTL, log),
			cache.New[*hierarchy.Listing](cache.NewMemoryStore[*hierarchy.Listing](cfg.MaxEntries), cfg.TTL, log),
			nil
	}
}
