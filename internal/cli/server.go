package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photosynthesis-lab/internal/app"
	"photosynthesis-lab/internal/config"
	"photosynthesis-lab/internal/engine"
	"photosynthesis-lab/internal/infra/memory"
	pgloader "photosynthesis-lab/internal/infra/postgres"
	redisinfra "photosynthesis-lab/internal/infra/redis"
	"photosynthesis-lab/internal/infra/yamlfile"
	"photosynthesis-lab/internal/logging"
	transport "photosynthesis-lab/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the lab server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	loader, closeLoader, err := buildContentLoader(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLoader()

	contentTTL := config.TTLDuration(cfg.Content.TTL, 10*time.Minute)
	var contents app.ContentRepository
	if redisClient != nil {
		repo := redisinfra.NewContentRepository(redisClient, loader, contentTTL)
		repo.SetLogger(log)
		contents = repo
	} else {
		contents = memory.NewContentRepository(loader, contentTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		owner, _ := os.Hostname()
		store = redisinfra.NewSessionStore(redisClient, redisTTL, owner)
	} else {
		store = memory.NewSessionStore()
	}

	service := app.NewLabService(store, contents, app.Options{
		RunDuration:      config.TTLDuration(cfg.Lab.SimulationDuration, engine.DefaultRunDuration),
		IncorrectFlash:   config.TTLDuration(cfg.Lab.IncorrectFlash, engine.DefaultIncorrectFlash),
		Logger:           log,
		DefaultContentID: cfg.Content.ID,
	})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(service, log),
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: WebSocket connections stay open for the whole session
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("port", finalPort).Info("starting photosynthesis lab")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildContentLoader prefers Postgres, then the YAML file, and always falls
// back to the built-in content.
func buildContentLoader(ctx context.Context, cfg config.Config) (memory.FallbackLoader, func(), error) {
	loaders := memory.FallbackLoader{}
	closeFn := func() {}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, closeFn, err
		}
		loaders = append(loaders, pgloader.NewContentLoader(pool))
		closeFn = pool.Close
	}
	if cfg.Content.File != "" {
		loaders = append(loaders, yamlfile.NewContentLoader(cfg.Content.File))
	}
	loaders = append(loaders, memory.NewDefaultContentLoader())

	return loaders, closeFn, nil
}
