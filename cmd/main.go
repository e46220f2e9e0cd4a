package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/common/version"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gabozzz15/DDS-SalvadorAllende-sub001/internal/app/docs"
	"github.com/gabozzz15/DDS-SalvadorAllende-sub001/internal/app/router"
	"github.com/gabozzz15/DDS-SalvadorAllende-sub001/internal/intake"
	alertmodule "github.com/gabozzz15/DDS-SalvadorAllende-sub001/internal/module/alert"
	"github.com/gabozzz15/DDS-SalvadorAllende-sub001/internal/pkg/cache"
	"github.com/gabozzz15/DDS-SalvadorAllende-sub001/internal/pkg/client/postgres"
	"github.com/gabozzz15/DDS-SalvadorAllende-sub001/internal/pkg/log"
	alertservice "github.com/gabozzz15/DDS-SalvadorAllende-sub001/internal/service/alert"
)

// @title           bienes-alertas
// @version         0.1.0
// @description     alert lifecycle service of the asset-management backend
// @schema          http
// @BasePath        /api/v1
func main() {
	var (
		logOutput          string
		logFormat          string
		logFile            string
		logLevel           string
		dbDSN              string
		dbConnectTimeout   time.Duration
		kafkaBrokers       string
		kafkaTopic         string
		kafkaGroupID       string
		redisAddr          string
		dedupTTL           time.Duration
		srvListenAddr      string
		srvShutdownTimeout time.Duration
	)
	app := kingpin.New(filepath.Base(os.Args[0]), "alert lifecycle service.")
	app.HelpFlag.Short('h')
	// Logging related flags
	app.Flag("log.level", "Log level, one of [debug, info, warn, error].").Default("info").EnumVar(&logLevel, "debug", "info", "warn", "error")
	app.Flag("log.output", "Log output, one of [stdout, stderr, file].").Default("stderr").EnumVar(&logOutput, "stdout", "stderr", "file")
	app.Flag("log.format", "Log format, one of [json, text].").Default("text").EnumVar(&logFormat, "json", "text")
	app.Flag("log.file", "Log file path when --log.output=file.").PlaceHolder("PATH").StringVar(&logFile)
	app.Flag("db.dsn", "PostgreSQL DSN of the alert store.").Envar("ALERTS_DB_DSN").Required().StringVar(&dbDSN)
	app.Flag("db.connect-timeout", "Timeout for the initial database connection (Go duration, e.g. 5s).").Default("5s").DurationVar(&dbConnectTimeout)
	app.Flag("kafka.brokers", "Comma-separated Kafka brokers of the alert intake topic. Empty disables intake.").StringVar(&kafkaBrokers)
	app.Flag("kafka.topic", "Kafka topic alert producers publish to.").Default("alerts.new").StringVar(&kafkaTopic)
	app.Flag("kafka.group-id", "Kafka consumer group id for intake.").Default("alert-intake").StringVar(&kafkaGroupID)
	app.Flag("redis.addr", "Redis address for intake deduplication. Empty disables dedup.").StringVar(&redisAddr)
	app.Flag("redis.dedup-ttl", "How long ingested alert ids are remembered for dedup.").Default("24h").DurationVar(&dedupTTL)
	app.Flag("server.listen-addr", "Server listen address (e.g. :8080 or 127.0.0.1:8080)").Default(":8081").StringVar(&srvListenAddr)
	app.Flag("server.shutdown-timeout", "Graceful shutdown timeout (e.g. 10s)").Default("10s").DurationVar(&srvShutdownTimeout)
	// Cross-flag validation
	app.PreAction(func(*kingpin.ParseContext) error {
		if strings.EqualFold(logOutput, "file") {
			if !isValidFilePath(logFile) {
				return fmt.Errorf("invalid --log.file path: %q", logFile)
			}
		}
		return nil
	})
	app.Version(version.Print("bienes-alertas"))

	_, err := app.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("failed to parse commandline arguments: %w", err))
		app.Usage(os.Args[1:])
		os.Exit(2)
	}

	logger, logClose, err := log.NewLogger(logOutput, logFormat, logFile, logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logClose()

	dbctx, dbcancel := context.WithTimeout(context.Background(), dbConnectTimeout)
	defer dbcancel()
	db, err := postgres.New(dbctx, dbDSN, postgres.WithConnectTimeout(dbConnectTimeout))
	if err != nil {
		logger.Error("unable to connect to alert store", slog.Any("err", err))
		os.Exit(1)
	}
	defer db.Close()

	svc := alertservice.New(db, logger)

	// Intake side: optional Kafka consumer with optional Redis dedup.
	var dedup *cache.Deduper
	if redisAddr != "" {
		rdb, err := cache.Connect(dbctx, redisAddr)
		if err != nil {
			logger.Error("unable to connect to redis", slog.Any("err", err))
			os.Exit(1)
		}
		defer rdb.Close()
		dedup = cache.NewDeduper(rdb, dedupTTL)
	}
	intakeCtx, intakeCancel := context.WithCancel(context.Background())
	defer intakeCancel()
	intakeErr := make(chan error, 1)
	if kafkaBrokers != "" {
		consumer, err := intake.NewConsumer(kafkaBrokers, kafkaTopic, kafkaGroupID, svc, dedupOrNil(dedup), logger)
		if err != nil {
			logger.Error("unable to create intake consumer", slog.Any("err", err))
			os.Exit(1)
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Run(intakeCtx); err != nil {
				intakeErr <- err
			}
		}()
	}

	// Build router and mount modules.
	r := router.New(logger)
	docs.SwaggerInfo.BasePath = "/api/v1"
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.Register(
		alertmodule.NewRouter(svc, logger),
	)
	router.Mount(r)
	srv := &http.Server{
		Addr:              srvListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in background
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", srvListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", slog.Any("err", err))
			os.Exit(1)
		}
	case err := <-intakeErr:
		logger.Error("intake consumer failed", slog.Any("err", err))
	case <-quit:
		// proceed to shutdown
	}
	logger.Info("shutting down server...")
	intakeCancel()
	ctx, cancel := context.WithTimeout(context.Background(), srvShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("err", err))
	}
	logger.Info("server exiting")
}

// dedupOrNil keeps a nil *Deduper from turning into a non-nil interface.
func dedupOrNil(d *cache.Deduper) intake.DedupChecker {
	if d == nil {
		return nil
	}
	return d
}

// isValidFilePath performs a light-weight validation for file paths.
// It accepts both absolute and relative paths and rejects empty paths
// or paths that end with a path separator (which usually indicate a directory).
func isValidFilePath(p string) bool {
	if strings.TrimSpace(p) == "" {
		return false
	}
	if strings.HasSuffix(p, string(os.PathSeparator)) {
		return false
	}
	base := filepath.Base(p)
	if base == "." || base == string(os.PathSeparator) {
		return false
	}
	return true
}
