// Package app declares the fx graph of the pricewatch server.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pricewatch/internal/app/di"
	"pricewatch/internal/app/router"
	"pricewatch/internal/config"
	"pricewatch/internal/feature/price/transport/handler"
	"pricewatch/internal/feature/price/usecase"
	platformhandler "pricewatch/internal/platform/http/handler"
	"pricewatch/internal/platform/logger"
	"pricewatch/internal/platform/metrics"
	"pricewatch/internal/platform/scheduler"
)

const shutdownTimeout = 10 * time.Second

// Module provides every component of the server. The caller supplies config.Config.
var Module = fx.Module("pricewatch",
	fx.Provide(
		provideLogger,
		provideClock,
		provideDB,
		provideRedis,
		provideRegistry,
		provideCycleMetrics,
		provideMarket,
		providePriceRepository,
		di.NewIngestUsecase,
		providePriceUsecase,
		handler.NewPriceHandler,
		provideScheduler,
		provideRouter,
	),
	fx.Invoke(registerHTTPServer, registerScheduler),
)

// WithLogger routes fx's own events through zap.
func WithLogger() fx.Option {
	return fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log.Named("fx")}
	})
}

func provideLogger(cfg config.Config) (*zap.Logger, error) {
	return logger.New(cfg.LogLevel, cfg.Env)
}

func provideClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

func provideDB(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := di.OpenDB(cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

func provideRedis(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	rdb := di.NewRedis(context.Background(), cfg, log)
	if rdb != nil {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return rdb.Close()
			},
		})
	}
	return rdb
}

func provideRegistry() (*prometheus.Registry, prometheus.Gatherer) {
	reg := metrics.NewRegistry()
	return reg, reg
}

func provideCycleMetrics(reg *prometheus.Registry) (usecase.CycleMetrics, error) {
	return metrics.NewCycleMetrics(reg)
}

func provideMarket(cfg config.Config, clock clockwork.Clock, log *zap.Logger) usecase.MarketRepository {
	return di.LimitMarket(cfg, di.NewMarket(cfg, log), clock, log)
}

func providePriceRepository(db *gorm.DB, rdb *redis.Client, clock clockwork.Clock, cfg config.Config, log *zap.Logger) usecase.PriceRepository {
	return di.NewPriceRepository(db, rdb, clock, cfg, log)
}

func providePriceUsecase(repo usecase.PriceRepository, log *zap.Logger) handler.PriceUsecase {
	return usecase.NewPriceUsecase(repo, log)
}

func provideScheduler(cfg config.Config, ingest *usecase.IngestUsecase, clock clockwork.Clock, log *zap.Logger) (*scheduler.Scheduler, error) {
	return scheduler.New("price-fetch", cfg.Fetch.Interval, ingest.Tick, clock, log)
}

func provideRouter(cfg config.Config, price *handler.PriceHandler, db *gorm.DB, gatherer prometheus.Gatherer, log *zap.Logger) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	return router.NewRouter(router.Params{
		Price: price,
		Auth:  di.NewAuthMiddleware(cfg.Auth, log),
		Ready: platformhandler.Ready(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
		Gatherer:     gatherer,
		AllowOrigins: cfg.CORSAllowOrigins,
		Log:          log,
	})
}

func registerHTTPServer(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *zap.Logger, shutdowner fx.Shutdowner) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("Server listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

func registerScheduler(lc fx.Lifecycle, s *scheduler.Scheduler, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Scheduler initialized", zap.Duration("interval", s.Interval()))
			return s.Start(ctx)
		},
		OnStop: func(context.Context) error {
			s.Stop()
			return nil
		},
	})
}
