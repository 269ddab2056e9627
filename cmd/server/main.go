package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-reservation/internal/config"
	"github.com/iliyamo/movie-reservation/internal/database"
	"github.com/iliyamo/movie-reservation/internal/handler"
	"github.com/iliyamo/movie-reservation/internal/logging"
	"github.com/iliyamo/movie-reservation/internal/middleware"
	"github.com/iliyamo/movie-reservation/internal/queue"
	"github.com/iliyamo/movie-reservation/internal/repository"
	"github.com/iliyamo/movie-reservation/internal/router"
	"github.com/iliyamo/movie-reservation/internal/service"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	logging.Setup(config.LoadLogConfig(cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logrus.WithError(err).Fatal("schema migration failed")
		}
		logrus.Info("schema migrated")
	}

	// Redis is optional; without it rate limiting and caching pass through.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()
	mw := router.Middlewares{
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:     middleware.NewRedisCache(cacheCfg, rdb),
		Purge:     middleware.PurgeOnWrite(cacheCfg, rdb),
	}

	opts := []service.Option{service.WithLocation(cfg.Location)}
	qcfg := config.LoadQueueConfig()
	if qcfg.Enabled {
		pub := queue.NewPublisher(qcfg.URL, qcfg.Queue)
		defer pub.Close()
		opts = append(opts, service.WithEvents(pub))

		out, err := logging.RotatingFile(qcfg.LogFile)
		if err != nil {
			logrus.WithError(err).Fatal("open reservation log failed")
		}
		defer out.Close()
		go func() {
			if err := queue.NewConsumer(qcfg.URL, qcfg.Queue, out).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logrus.WithError(err).Error("reservation consumer stopped")
			}
		}()
	}

	users := repository.NewUserRepo(db)
	reservations := service.NewReservationService(repository.NewReservationStore(db), opts...)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db)), cfg.JWTSecret, mw)
	router.RegisterCatalog(e, handler.NewCatalogHandler(
		repository.NewGenreRepo(db),
		repository.NewMovieRepo(db),
		repository.NewShowtimeRepo(db),
		repository.NewSeatRepo(db),
	), cfg.JWTSecret, mw)
	router.RegisterReservations(e, handler.NewReservationHandler(reservations), cfg.JWTSecret, mw)
	router.RegisterUsers(e, handler.NewUserHandler(users), cfg.JWTSecret, mw)

	addr := ":" + cfg.Port
	go func() {
		logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "timezone": cfg.Location.String()}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
	logrus.Info("server stopped")
}
