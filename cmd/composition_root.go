package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	httpadapter "tracking/internal/adapters/in/http"
	"tracking/internal/adapters/in/ws"
	"tracking/internal/adapters/out/hub"
	"tracking/internal/adapters/out/jwtidentity"
	"tracking/internal/adapters/out/kafkarelay"
	"tracking/internal/adapters/out/memory"
	"tracking/internal/adapters/out/postgres"
	"tracking/internal/adapters/out/postgres/directoryrepo"
	"tracking/internal/adapters/out/postgres/orderrepo"
	"tracking/internal/adapters/out/publisher"
	"tracking/internal/adapters/out/redisidem"
	"tracking/internal/core/application/usecases/commands"
	"tracking/internal/core/application/usecases/queries"
	"tracking/internal/core/ports"
	"tracking/internal/jobs"
	"tracking/internal/pkg/logger"
	"tracking/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Directory is every read-only directory the use cases consult.
type Directory interface {
	ports.CustomerDirectory
	ports.DeliveryPartnerDirectory
	ports.AdminDirectory
	ports.BranchDirectory
	ports.ProductCatalog
}

type CompositionRoot struct {
	cfg      Config
	logger   zerolog.Logger
	registry *prometheus.Registry

	gormDB     *gorm.DB
	uowFactory ports.UnitOfWorkFactory
	orders     ports.OrderRepository
	directory  Directory

	hub       *hub.Hub
	relay     *kafkarelay.Relay
	redis     *redis.Client
	identity  *jwtidentity.Gateway
	publisher ports.EventPublisher
}

// NewCompositionRoot connects every configured backend. On error the
// connections opened so far are closed.
func NewCompositionRoot(ctx context.Context, cfg Config, log zerolog.Logger) (_ *CompositionRoot, err error) {
	c := &CompositionRoot{
		cfg:      cfg,
		logger:   log,
		registry: prometheus.NewRegistry(),
	}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if c.identity, err = jwtidentity.New(cfg.JWTSecret, cfg.JWTIssuer); err != nil {
		return nil, fmt.Errorf("identity gateway: %w", err)
	}

	switch cfg.StoreDriver {
	case StoreDriverMemory:
		err = c.openMemory()
	default:
		err = c.openPostgres(ctx)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RedisURL != "" {
		if err = c.openRedis(ctx); err != nil {
			return nil, err
		}
	}

	c.hub = hub.New(
		hub.WithQueueSize(cfg.HubQueueSize),
		hub.WithLogger(logger.Component(log, "hub")),
		hub.WithMetrics(metrics.NewHubMetrics(c.registry)),
	)

	publishers := publisher.Multi{hub.NewPublisher(c.hub)}
	if brokers := kafkarelay.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		writer := kafkarelay.NewWriter(brokers, cfg.KafkaOrderEventsTopic, logger.Component(log, "kafka_relay"))
		c.relay = kafkarelay.New(writer)
		publishers = append(publishers, c.relay)
		log.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaOrderEventsTopic).Msg("kafka event relay enabled")
	}
	c.publisher = publishers

	return c, nil
}

func (c *CompositionRoot) openMemory() error {
	store := memory.NewOrderStore()
	dir := memory.NewDirectory()

	if c.cfg.MemorySeedFile != "" {
		f, err := os.Open(c.cfg.MemorySeedFile)
		if err != nil {
			return fmt.Errorf("opening seed file: %w", err)
		}
		defer f.Close()

		if err := dir.LoadSeed(f); err != nil {
			return fmt.Errorf("loading seed file: %w", err)
		}
	}

	c.orders = store
	c.uowFactory = memory.NewUnitOfWorkFactory(store)
	c.directory = dir
	c.logger.Warn().Msg("using in-memory store; orders are lost on restart")
	return nil
}

func (c *CompositionRoot) openPostgres(ctx context.Context) error {
	db, err := gorm.Open(
		gormpostgres.New(gormpostgres.Config{DSN: c.cfg.DSN()}),
		&gorm.Config{TranslateError: true, Logger: gormlogger.Discard},
	)
	if err != nil {
		return fmt.Errorf("opening db connection: %w", err)
	}
	c.gormDB = db

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("getting sql db handle: %w", err)
	}
	if err = sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	c.registry.MustRegister(collectors.NewDBStatsCollector(sqlDB, c.cfg.DBName))

	if c.cfg.DBAutoMigrate {
		if err = postgres.AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
		c.logger.Info().Msg("database schema migrated")
	}

	c.orders = orderrepo.NewGormOrderRepository(db)
	c.uowFactory = postgres.NewGormUnitOfWorkFactory(db)
	c.directory = directoryrepo.NewGormDirectory(db)
	return nil
}

func (c *CompositionRoot) openRedis(ctx context.Context) error {
	opts, err := redis.ParseURL(c.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parsing redis url: %w", err)
	}
	c.redis = redis.NewClient(opts)
	if err = c.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (c *CompositionRoot) commandOptions(component string) []commands.Option {
	return []commands.Option{
		commands.WithTimeout(c.cfg.StoreTimeout),
		commands.WithLogger(logger.Component(c.logger, component)),
	}
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(
		c.uowFactory, c.directory, c.directory, c.directory,
		c.commandOptions("create_order")...,
	)
}

func (c *CompositionRoot) CreateClaimOrderCommandHandler() commands.ClaimOrderCommandHandler {
	return commands.NewClaimOrderCommandHandler(
		c.uowFactory, c.directory, c.publisher,
		c.commandOptions("claim_order")...,
	)
}

func (c *CompositionRoot) CreateUpdateOrderStatusCommandHandler() commands.UpdateOrderStatusCommandHandler {
	return commands.NewUpdateOrderStatusCommandHandler(
		c.uowFactory, c.directory, c.publisher,
		c.commandOptions("update_order_status")...,
	)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.orders, c.cfg.StoreTimeout)
}

func (c *CompositionRoot) CreateListOrdersQueryHandler() queries.ListOrdersQueryHandler {
	return queries.NewListOrdersQueryHandler(c.orders, c.cfg.StoreTimeout)
}

func (c *CompositionRoot) CreateGetProfileQueryHandler() queries.GetProfileQueryHandler {
	return queries.NewGetProfileQueryHandler(c.directory, c.directory, c.directory, c.cfg.StoreTimeout)
}

// CreateHTTPServer wires the use cases, the live channel and the optional
// idempotency store into the API.
func (c *CompositionRoot) CreateHTTPServer() *httpadapter.Server {
	opts := []httpadapter.Option{
		httpadapter.WithLogger(logger.Component(c.logger, "http")),
		httpadapter.WithMetrics(metrics.NewHTTPMetrics(c.registry), metrics.Handler(c.registry)),
		httpadapter.WithHealth(func() any { return c.hub.Stats() }),
		httpadapter.WithLiveChannel(ws.NewHandler(
			c.hub,
			ws.WithSendBuffer(c.cfg.HubClientBuffer),
			ws.WithLogger(logger.Component(c.logger, "ws")),
		)),
	}
	if c.redis != nil {
		opts = append(opts, httpadapter.WithIdempotency(redisidem.New(c.redis, c.cfg.IdempotencyTTL)))
	}

	return httpadapter.NewServer(
		httpadapter.Handlers{
			CreateOrder:  c.CreateCreateOrderCommandHandler(),
			ClaimOrder:   c.CreateClaimOrderCommandHandler(),
			UpdateStatus: c.CreateUpdateOrderStatusCommandHandler(),
			GetOrder:     c.CreateGetOrderQueryHandler(),
			ListOrders:   c.CreateListOrdersQueryHandler(),
			GetProfile:   c.CreateGetProfileQueryHandler(),
		},
		c.identity,
		opts...,
	)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	jm := jobs.NewJobManager(logger.Component(c.logger, "jobs"))
	jm.Add("order_stats", jobs.NewOrderStatsJob(
		c.orders,
		metrics.NewJobMetrics(c.registry),
		c.cfg.OrderStatsSchedule,
		c.logger,
	))
	return jm
}

func (c *CompositionRoot) Hub() *hub.Hub {
	return c.hub
}

// Close releases the relay, redis and database connections.
func (c *CompositionRoot) Close() error {
	var errList []error
	if c.relay != nil {
		errList = append(errList, c.relay.Close())
	}
	if c.redis != nil {
		errList = append(errList, c.redis.Close())
	}
	if c.gormDB != nil {
		if sqlDB, err := c.gormDB.DB(); err == nil {
			errList = append(errList, sqlDB.Close())
		}
	}
	return errors.Join(errList...)
}
