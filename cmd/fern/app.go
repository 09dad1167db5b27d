package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/repositories/resolutionrecord"
	"github.com/Ramsey-B/fern/internal/server"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/disambiguation"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/resolution"
	"github.com/Ramsey-B/fern/pkg/routes/entities"
	graphroutes "github.com/Ramsey-B/fern/pkg/routes/graph"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/routes/resolutions"
	"github.com/Ramsey-B/fern/pkg/startup"
)

// app owns the process dependencies. Infra fields are set as startup brings them up.
type app struct {
	cfg     *config.Config
	logger  ectologger.Logger
	startup *startup.Startup
	checker *health.Checker

	graph    *graph.Client
	redis    *redis.Client
	db       database.DB
	producer *kafka.Producer
	consumer *kafka.Consumer

	entityService *graph.EntityService
	records       *resolutionrecord.Repository
	service       *resolution.Service
}

type appOptions struct {
	withConsumer bool
}

func newApp(cfg *config.Config, logger ectologger.Logger, opts appOptions) *app {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		startup: startup.NewStartup(logger, cfg.StartupMaxAttempts),
		checker: health.NewChecker(cfg.Version),
	}

	infra := []string{"graph"}

	a.startup.AddDependency(&startup.Dependency{
		Name: "graph",
		StartFunc: func(ctx context.Context) error {
			if a.graph == nil {
				client, err := graph.NewClient(cfg.Graph(), logger)
				if err != nil {
					return err
				}
				a.graph = client
			}
			return a.graph.VerifyConnectivity(ctx)
		},
		StopFunc: func(ctx context.Context) error {
			return a.graph.Close(ctx)
		},
	})
	a.checker.AddCheck("graph", func(ctx context.Context) error {
		if a.graph == nil {
			return fmt.Errorf("graph not connected")
		}
		return a.graph.VerifyConnectivity(ctx)
	})

	if cfg.RedisEnabled {
		infra = append(infra, "redis")
		a.startup.AddDependency(&startup.Dependency{
			Name: "redis",
			StartFunc: func(ctx context.Context) error {
				if a.redis == nil {
					a.redis = redis.NewClient(cfg.Redis(), logger)
				}
				return a.redis.Ping(ctx)
			},
			StopFunc: func(context.Context) error {
				return a.redis.Close()
			},
		})
		a.checker.AddCheck("redis", func(ctx context.Context) error {
			if a.redis == nil {
				return fmt.Errorf("redis not connected")
			}
			return a.redis.Ping(ctx)
		})
	}

	if cfg.DatabaseEnabled {
		infra = append(infra, "database")
		a.startup.AddDependency(&startup.Dependency{
			Name: "database",
			StartFunc: func(ctx context.Context) error {
				db, err := database.Connect(ctx, cfg.Database(), logger)
				if err != nil {
					return err
				}
				a.db = db
				return nil
			},
			StopFunc: func(context.Context) error {
				return a.db.Close()
			},
		})
		a.checker.AddCheck("database", func(ctx context.Context) error {
			if a.db == nil {
				return fmt.Errorf("database not connected")
			}
			return a.db.PingContext(ctx)
		})
	}

	if cfg.EventsEnabled {
		infra = append(infra, "producer")
		a.startup.AddDependency(&startup.Dependency{
			Name: "producer",
			StartFunc: func(context.Context) error {
				if a.producer == nil {
					a.producer = kafka.NewProducer(cfg.Producer(), logger)
				}
				return nil
			},
			StopFunc: func(context.Context) error {
				return a.producer.Close()
			},
		})
	}

	a.startup.AddDependency(&startup.Dependency{
		Name:      "pipeline",
		Requires:  infra,
		StartFunc: func(context.Context) error { return a.buildPipeline() },
	})

	if opts.withConsumer && cfg.KafkaConsumerEnabled {
		a.startup.AddDependency(&startup.Dependency{
			Name:     "consumer",
			Requires: []string{"pipeline"},
			StartFunc: func(ctx context.Context) error {
				a.consumer = kafka.NewConsumer(cfg.Consumer(), logger, a.handleBatch)
				// the consumer outlives the startup attempt, so it runs on a detached context
				return a.consumer.Start(context.WithoutCancel(ctx))
			},
			StopFunc: func(context.Context) error {
				return a.consumer.Stop()
			},
		})
	}

	return a
}

func (a *app) buildPipeline() error {
	if a.service != nil {
		return nil
	}

	extractor, err := disambiguation.NewNameExtractor(a.cfg.DisambiguationNameExpression)
	if err != nil {
		return err
	}
	chains, err := normalizers.ParseTypeChains(a.cfg.DisambiguationTypeNormalizers)
	if err != nil {
		return err
	}

	var cache disambiguation.EntityCache
	if a.redis != nil {
		cache = disambiguation.NewRedisEntityCache(a.redis, a.cfg.RedisCacheTTL)
	}

	a.entityService = graph.NewEntityService(a.graph, a.logger)
	gateway := disambiguation.NewGraphDisambiguator(extractor, chains, a.entityService, cache, a.logger)

	var observers []resolution.Observer
	if a.db != nil {
		a.records = resolutionrecord.NewRepository(a.db, a.logger)
		observers = append(observers, resolutionrecord.NewRecorder(a.records))
	}
	if a.producer != nil {
		observers = append(observers, events.NewEmitter(a.producer, a.logger).WithTimeout(a.cfg.EventPublishTimeout))
	}

	a.service = resolution.NewService(
		resolution.NewCollector(gateway, a.cfg.Collector(), a.logger),
		resolution.NewExecutor(graph.NewStatementWriter(a.graph, a.logger), a.logger),
		a.logger,
		observers...,
	)
	return nil
}

// handleBatch resolves one batch from the ingestion topic
func (a *app) handleBatch(ctx context.Context, req models.BatchRequest) error {
	_, err := a.service.ResolveAndLink(ctx, req)
	if errors.Is(err, resolution.ErrInvalidBatch) {
		return fmt.Errorf("%w: %w", kafka.ErrSkipMessage, err)
	}
	return err
}

func (a *app) serverOptions() server.Options {
	opts := server.Options{
		ServiceName:  a.cfg.AppName,
		BodyLimit:    a.cfg.BodyLimit,
		AllowOrigins: a.cfg.AllowOrigins,
		AllowMethods: a.cfg.AllowMethods,
		Entities:     entities.NewHandler(a.service),
		Graph:        graphroutes.NewHandler(a.entityService, graph.NewRelationshipService(a.graph, a.logger)),
		Health:       a.checker,
	}
	if a.records != nil {
		opts.Resolutions = resolutions.NewHandler(a.records)
	}
	return opts
}
