package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rosterdesk/roster/internal/api"
	"github.com/rosterdesk/roster/internal/api/handler"
	"github.com/rosterdesk/roster/internal/core/service"
	mongodb "github.com/rosterdesk/roster/internal/infrastructure/db/mongo"
	redisdb "github.com/rosterdesk/roster/internal/infrastructure/db/redis"
	"github.com/rosterdesk/roster/internal/infrastructure/queue"
	"github.com/rosterdesk/roster/internal/pkg/config"
	"github.com/rosterdesk/roster/pkg/logger"
)

var serveWorkers int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the roster API server",
	Long: `Start the HTTP API. Configuration is read from the environment
(PORT, JWT_SECRET, MONGO_URI, REDIS_ADDR, ...).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 0, "session event dispatcher workers (0 = default)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: "roster-api",
	})

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "roster",
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensuring indexes: %w", err)
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	sessions := redisdb.NewSessionStore(rdb, log)
	authService := service.NewAuthService(mongodb.NewAuthRepository(db), sessions, cfg.JWTSecret, cfg.TokenTTL, log)
	studentService := service.NewStudentService(mongodb.NewStudentRepository(db), redisdb.NewIdempotencyStore(rdb), log)

	if cfg.Admin.Email != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return fmt.Errorf("seeding admin: %w", err)
		}
	}

	dispatcher := queue.NewDispatcher(serveWorkers, log)
	dispatcher.Start(ctx)
	go dispatcher.Consume(ctx, sessions.Subscribe(ctx))

	e := api.NewRouter(api.Deps{
		Log:            log,
		JWTSecret:      cfg.JWTSecret,
		AuthService:    authService,
		StudentService: studentService,
		Sessions:       sessions,
		Watcher:        dispatcher,
		Readiness:      handler.NewHealthDependenciesHandler(db, rdb),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
