package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/clover/config"
	batchjobrepo "github.com/Ramsey-B/clover/internal/repositories/batchjob"
	institutionrepo "github.com/Ramsey-B/clover/internal/repositories/institution"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/dedup"
	"github.com/Ramsey-B/clover/pkg/ingest"
	"github.com/Ramsey-B/clover/pkg/jobs"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	"github.com/Ramsey-B/clover/pkg/routes/job"
	"github.com/Ramsey-B/clover/pkg/routes/match"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	tracing.SetTracer(tp.Tracer(cfg.AppName))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithContext(ctx).WithError(err).Error("clover exited with error")
		os.Exit(1)
	}
}

func buildLogger(cfg config.Config) (ectologger.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if lvl, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

func run(ctx context.Context, cfg config.Config, logger ectologger.Logger) error {
	dbPort, err := strconv.Atoi(cfg.DatabasePort)
	if err != nil {
		return fmt.Errorf("invalid DB_PORT %q: %w", cfg.DatabasePort, err)
	}

	db, err := database.Connect(ctx, logger, database.ConnectConfig{
		Host:            cfg.DatabaseHost,
		Port:            dbPort,
		User:            cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrateDatabase(cfg, logger, db); err != nil {
		return err
	}

	// Load the registry snapshot once; the engine never writes it back.
	instRepo := institutionrepo.NewRepository(db, logger)
	institutions, err := instRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load institution registry: %w", err)
	}
	registry := matching.NewRegistry(institutions)
	logger.WithContext(ctx).WithFields(map[string]any{"institutions": registry.Len()}).Info("Loaded canonical registry")

	resolver := matching.NewResolver(logger, registry, matching.ResolverConfig{
		FuzzyInStateThreshold: cfg.FuzzyInStateThreshold,
		FuzzyRelaxedThreshold: cfg.FuzzyRelaxedThreshold,
		PartialConfidence:     cfg.PartialConfidence,
	})
	detector := dedup.NewDetector(logger, dedup.DetectorConfig{
		SimilarityThreshold: cfg.DuplicateSimilarityThreshold,
	})

	producerCfg := kafka.DefaultProducerConfig()
	producerCfg.Brokers = cfg.KafkaBrokers
	producerCfg.Topic = cfg.KafkaOutputTopic
	producerCfg.BatchSize = cfg.KafkaBatchSize
	producerCfg.BatchTimeout = time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond
	producerCfg.RequiredAcks = cfg.KafkaRequiredAcks
	producerCfg.Compression = cfg.KafkaCompression

	producer, err := kafka.NewProducer(producerCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create kafka producer: %w", err)
	}
	defer producer.Close()

	svc := ingest.NewService(logger, resolver, detector, producer, ingest.ServiceConfig{
		DuplicateReportTopic: cfg.KafkaDuplicateReportTopic,
	})

	jobStore := batchjobrepo.NewRepository(db, logger)
	queue := jobs.NewQueue(logger, jobStore, jobs.QueueConfig{MaxConcurrent: cfg.JobMaxConcurrent})
	queue.RegisterRunner(models.BatchJobKindMatch, svc.MatchRunner())
	queue.RegisterRunner(models.BatchJobKindDuplicateScan, svc.ScanRunner())
	if err := queue.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore job queue: %w", err)
	}

	var consumer *kafka.Consumer
	if cfg.KafkaConsumerEnabled {
		consumerCfg := kafka.DefaultConsumerConfig()
		consumerCfg.Brokers = cfg.KafkaBrokers
		consumerCfg.Topic = cfg.KafkaInputTopic
		consumerCfg.GroupID = cfg.KafkaConsumerGroup

		consumer, err = kafka.NewConsumer(consumerCfg, logger)
		if err != nil {
			return fmt.Errorf("failed to create kafka consumer: %w", err)
		}
		if err := consumer.Start(ctx, svc.HandleRowMessage); err != nil {
			return fmt.Errorf("failed to start kafka consumer: %w", err)
		}
		defer consumer.Stop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	checker := health.NewChecker(db, version)
	checker.Register(e)

	api := e.Group("/api/v1")
	job.NewHandler(queue, logger).Register(api.Group("/jobs"))
	match.NewHandler(svc, logger).Register(api)

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(fmt.Sprintf(":%d", cfg.Port))
	}()
	checker.SetReady(true)
	logger.WithContext(ctx).Infof("%s listening on port %d", cfg.AppName, cfg.Port)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
	}

	checker.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Failed to shut down HTTP server cleanly")
	}

	logger.Info("clover stopped")
	return nil
}

func migrateDatabase(cfg config.Config, logger ectologger.Logger, db database.DB) error {
	instance, ok := db.(*database.DatabaseInstance)
	if !ok {
		return fmt.Errorf("database instance does not support migrations")
	}

	driver, err := migratepg.WithInstance(instance.DB.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	svc := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
	})
	return svc.Migrate(cfg.DatabaseName, driver)
}
