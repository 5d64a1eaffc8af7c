package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"storefront/internal/config"
	httpapi "storefront/internal/controllers/http"
	"storefront/internal/infra"
	mmysql "storefront/internal/infra/mysql"
	"storefront/internal/infra/rabbitmq"
	mysqlrepo "storefront/internal/repository/mysql"
	"storefront/internal/services"
	"storefront/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type App struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *gorm.DB
	rdb       *redis.Client
	publisher *rabbitmq.Publisher
	hub       *websocket.Hub
	httpSrv   *http.Server
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := mmysql.Open(cfg.MySQL)
	if err != nil {
		return nil, err
	}
	if err := mmysql.AutoMigrate(db); err != nil {
		closeDB(db)
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		DB:           0,
		PoolSize:     200,
		MinIdleConns: 20,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, order status cache degraded", "addr", cfg.Redis.Addr, "err", err)
	}

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		_ = rdb.Close()
		closeDB(db)
		return nil, fmt.Errorf("init publisher: %w", err)
	}

	gateway := infra.NewGatewayClient(infra.GatewayConfig{
		StoreID:       cfg.SSLCommerz.StoreID,
		StorePassword: cfg.SSLCommerz.StorePassword,
		PaymentURL:    cfg.SSLCommerz.PaymentURL,
		ValidationURL: cfg.SSLCommerz.ValidationURL,
		Currency:      cfg.SSLCommerz.Currency,
		Timeout:       cfg.SSLCommerz.Timeout,
	}, logger)

	orderRepo := mysqlrepo.NewOrderRepository(db)
	cartRepo := mysqlrepo.NewCartRepository(db)
	hub := websocket.NewHub(logger)

	orderSvc := services.NewOrderService(orderRepo, cartRepo, publisher, logger)
	orderSvc.SetRedisClient(rdb, cfg.Redis.StatusTTL)

	paymentSvc := services.NewPaymentService(orderRepo, gateway, publisher, logger)
	paymentSvc.SetRedisClient(rdb)
	paymentSvc.SetNotifier(hub)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	httpapi.NewHandler(orderSvc, paymentSvc, hub, cfg.HTTP.PublicBaseURL, logger).RegisterRoutes(r)

	return &App{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		rdb:       rdb,
		publisher: publisher,
		hub:       hub,
		httpSrv: &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run blocks until ctx is canceled or the HTTP server fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		a.logger.Info("storefront http server listening", "addr", a.cfg.HTTP.Addr)
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return a.httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) Close() {
	a.publisher.Close()
	if err := a.rdb.Close(); err != nil {
		a.logger.Warn("close redis", "err", err)
	}
	closeDB(a.db)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
