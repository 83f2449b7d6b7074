package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/instrument-shop/internal/cfg"
	v1Http "github.com/DRSN-tech/instrument-shop/internal/delivery/v1/http"
	"github.com/DRSN-tech/instrument-shop/internal/infrastructure/kafka"
	"github.com/DRSN-tech/instrument-shop/internal/repository/memory"
	"github.com/DRSN-tech/instrument-shop/internal/repository/pgdb"
	redisRepo "github.com/DRSN-tech/instrument-shop/internal/repository/redis"
	redisConv "github.com/DRSN-tech/instrument-shop/internal/repository/redis/converter"
	"github.com/DRSN-tech/instrument-shop/internal/usecase"
	"github.com/DRSN-tech/instrument-shop/pkg/clients"
	"github.com/DRSN-tech/instrument-shop/pkg/closer"
	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/DRSN-tech/instrument-shop/pkg/keymutex"
	"github.com/DRSN-tech/instrument-shop/pkg/logger"
	"github.com/DRSN-tech/instrument-shop/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	initTimeout        = 10 * time.Second
	ensureTopicTimeout = 10 * time.Second
)

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	closer  *closer.Closer
	httpSrv *v1Http.Server
}

// storage - набор хранилищ, выбранный по STORAGE.
type storage struct {
	products    usecase.ProductStore
	snapshotter usecase.Snapshotter
	cache       usecase.CategoryCache
	sessions    usecase.SessionStore
	locker      usecase.SessionLocker
	checks      map[string]v1Http.HealthCheck
}

// NewApp собирает зависимости приложения. Открытые ресурсы регистрируются в closer,
// поэтому при ошибке посередине уже поднятое закрывается.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: log,
		closer: closer.NewCloser(2 * time.Second),
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	st, err := a.initStorage(ctx)
	if err != nil {
		a.closeOnInitError()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	publisher := a.initPublisher()

	catalogUC := usecase.NewCatalogUC(st.products, st.snapshotter, st.cache, log, usecase.CatalogOptions{
		DefaultPageSize: cfg.Catalog.DefaultPageSize,
		MaxPageSize:     cfg.Catalog.MaxPageSize,
	})
	cartUC := usecase.NewCartUC(st.products, st.sessions, st.locker, publisher, log, usecase.CartOptions{
		LockTimeout: cfg.Cart.LockTimeout,
	})

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log, v1Http.RouterOptions{
		AllowedOrigins: cfg.Http.AllowedOrigins,
		Session:        cfg.Session,
		Cart:           cfg.Cart,
	})
	router.Init(catalogUC, cartUC, v1Http.NewHealthHandler(st.checks, log))

	a.httpSrv = v1Http.NewServer(r, cfg.Http)
	a.closer.Add("http server", a.httpSrv.Stop)

	return a, nil
}

func (a *App) initStorage(ctx context.Context) (*storage, error) {
	if a.cfg.Storage == config.StorageMemory {
		a.logger.Warnf("Using in-memory storage: catalog is seeded, carts are lost on restart")
		return &storage{
			products: memory.NewSeededProductRepo(),
			sessions: memory.NewSessionRepo(a.cfg.Session.TTL),
			locker:   keymutex.New(),
			checks:   map[string]v1Http.HealthCheck{},
		}, nil
	}

	db, err := postgres.Connect(ctx, a.cfg.Db)
	if err != nil {
		a.logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("postgres", func(context.Context) error {
		db.Close()
		return nil
	})

	if err := db.RunMigrations(a.logger); err != nil {
		a.logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redisClient := clients.NewRedisClient(a.cfg.Redis)
	a.closer.Add("redis", func(context.Context) error {
		return redisClient.Close()
	})
	if err := redisClient.Ping(ctx); err != nil {
		a.logger.Errorf(err, "failed to connect to redis")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &storage{
		products:    pgdb.NewCatalogStore(db.Pool),
		snapshotter: pgdb.NewSnapshotter(db.Pool),
		cache:       redisRepo.NewCacheRepo(redisClient, &redisConv.CategoryConverterImpl{}, a.cfg.Redis, a.logger),
		sessions:    redisRepo.NewSessionRepo(redisClient, a.cfg.Session.TTL),
		locker:      redisRepo.NewLockRepo(redisClient, a.cfg.Redis, a.logger),
		checks: map[string]v1Http.HealthCheck{
			"postgres": db.Ping,
			"redis":    redisClient.Ping,
		},
	}, nil
}

// initPublisher возвращает nil, если Kafka не настроена или недоступна: корзина работает и без событий.
func (a *App) initPublisher() usecase.CartEventPublisher {
	if a.cfg.Kafka == nil {
		a.logger.Infof("KAFKA_BROKERS is not set, cart events are disabled")
		return nil
	}

	producer, err := kafka.NewProducer(a.logger, a.cfg.Kafka)
	if err != nil {
		a.logger.Warnf("Failed to initialize kafka producer, cart events are disabled: %v", err)
		return nil
	}
	a.closer.Add("kafka producer", func(context.Context) error {
		return producer.Close()
	})

	if err := producer.EnsureTopic(ensureTopicTimeout); err != nil {
		a.logger.Warnf("Failed to ensure kafka topic %s: %v", a.cfg.Kafka.Topic, err)
	}

	return producer
}

func (a *App) closeOnInitError() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Http.ShutdownTimeout)
	defer cancel()

	if err := a.closer.Close(ctx); err != nil {
		a.logger.Warnf("Cleanup after failed start: %v", err)
	}
}

// Run запускает HTTP-сервер и блокируется до сигнала остановки или ошибки сервера.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on %s (storage: %s)", a.httpSrv.Addr(), a.cfg.Storage)
		if err := a.httpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	// === Graceful shutdown ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Http.ShutdownTimeout)
	defer cancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
		if appErr == nil {
			appErr = err
		}
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}
