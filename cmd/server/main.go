package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/seat-booking/internal/config"
	"github.com/iliyamo/seat-booking/internal/database"
	"github.com/iliyamo/seat-booking/internal/logging"
	"github.com/iliyamo/seat-booking/internal/middleware"
	"github.com/iliyamo/seat-booking/internal/model"
	"github.com/iliyamo/seat-booking/internal/queue"
	"github.com/iliyamo/seat-booking/internal/registry"
	"github.com/iliyamo/seat-booking/internal/repository"
	"github.com/iliyamo/seat-booking/internal/router"
	"github.com/iliyamo/seat-booking/internal/service"
)

// sessionPurgeEvery is how often expired and revoked sessions are deleted.
const sessionPurgeEvery = 15 * time.Minute

// sessionPurger is implemented by both session stores.
type sessionPurger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	logger := logging.New(logging.Options{Name: "seat-booking", Level: cfg.LogLevel, JSON: cfg.LogJSON})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := router.Deps{Cfg: cfg, Log: logger}
	var (
		store  registry.Store
		purger sessionPurger
		db     *sql.DB
	)
	seats := model.Layout(cfg.SeatCount, cfg.SeatsPerRow)

	switch cfg.SeatStore {
	case config.StoreMemory:
		sessions := repository.NewMemorySessions()
		store = registry.NewMemory(seats)
		deps.Users = repository.NewMemoryUsers()
		deps.Sessions = sessions
		purger = sessions
		logger.Warn("using in-memory storage, data is lost on restart")
	default:
		var err error
		db, err = database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			logger.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		sctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = database.EnsureSchema(sctx, db)
		if err == nil {
			repo := repository.NewSeatRepo(db)
			var n int
			if n, err = repo.SeedIfEmpty(sctx, seats); err == nil && n > 0 {
				logger.Info("seeded seat pool", "seats", n)
			}
			store = repo
		}
		cancel()
		if err != nil {
			logger.Error("database setup failed", "error", err)
			os.Exit(1)
		}

		sessions := repository.NewSessionRepo(db)
		deps.Users = repository.NewUserRepo(db)
		deps.Sessions = sessions
		purger = sessions
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig(), logger.Named("redis"))
	if rdb != nil {
		defer rdb.Close()
	}
	deps.Redis = rdb
	deps.RateLimit = config.LoadRateLimitConfig()

	events := queue.NewPublisher(config.LoadEventsConfig(), logger.Named("events"))
	defer events.Close()

	deps.Alloc = service.NewAllocator(store, events, logger.Named("allocator"))

	go purgeSessions(ctx, purger, logger.Named("sessions"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger.Named("http")))
	router.RegisterRoutes(e, deps)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env, "store", cfg.SeatStore, "seats", cfg.SeatCount)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func purgeSessions(ctx context.Context, p sessionPurger, logger hclog.Logger) {
	ticker := time.NewTicker(sessionPurgeEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			n, err := p.PurgeExpired(pctx, time.Now().UTC())
			cancel()
			if err != nil {
				logger.Warn("purge sessions failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("purged sessions", "count", n)
			}
		}
	}
}
