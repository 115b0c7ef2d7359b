// cmd/compliance-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"letting-compliance/internal/aml"
	"letting-compliance/internal/api"
	awsclient "letting-compliance/internal/common/aws"
	"letting-compliance/internal/common/camunda"
	"letting-compliance/internal/common/config"
	"letting-compliance/internal/common/database"
	"letting-compliance/internal/common/logger"
	"letting-compliance/internal/common/observability"
	"letting-compliance/internal/dashboard"
	"letting-compliance/internal/mailer"
	"letting-compliance/internal/notification"
	"letting-compliance/internal/repository"

	screen "letting-compliance/internal/workers/aml/screen-subject"
	checks "letting-compliance/internal/workers/compliance/run-notification-checks"
)

// retryWithBackoff retries operation with exponential backoff starting at
// initialDelay, giving up after maxRetries attempts.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialDelay
	b.MaxElapsedTime = 0

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		return operation()
	}, backoff.WithMaxRetries(b, uint64(maxRetries-1)), func(err error, next time.Duration) {
		log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("maxRetries", maxRetries),
			zap.Duration("nextRetryIn", next),
		)
	})
	if err != nil {
		return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempt, err)
	}
	return nil
}

func main() {
	bootLog := logger.New("info", "json")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting compliance manager...", zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	repos := repository.New(pg.DB)

	// --- Notification search (optional) ---
	var (
		indexer    notification.Indexer
		searcher   api.NotificationSearcher
		readMarker notification.ReadMarker
	)
	if cfg.Notifications.Search.Enabled {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}

		index := notification.NewSearchIndex(es.Client, cfg.Database.Elasticsearch.NotificationIndex)
		if err := index.EnsureIndex(ctx); err != nil {
			zapLog.Warn("failed to ensure notification index", zap.Error(err))
		}
		indexer, searcher, readMarker = index, index, index
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Outbound channels ---
	var sesClient mailer.SESClient
	if cfg.Integrations.AWS.SES.Enabled {
		client, err := awsclient.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		sesClient = client
	}
	mail := mailer.New(cfg, sesClient, log)

	renderer, err := mailer.NewRenderer()
	if err != nil {
		zapLog.Fatal("email templates failed to parse", zap.Error(err))
	}

	var sms notification.SMSSender
	if cfg.Notifications.SMS.Enabled && cfg.Integrations.AWS.SNS.Enabled {
		client, err := awsclient.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		sms = notification.NewSNSSender(client, cfg.Integrations.AWS.SNS.DefaultSMSSenderID)
	}

	contacts := notification.NewCachedDirectory(repos.Users, rdb.Client,
		time.Duration(cfg.Notifications.ContactCacheTTL)*time.Second, log)

	// --- Domain services ---
	dispatcher := notification.NewDispatcher(notification.Deps{
		Certificates:  repos.Certificates,
		Licenses:      repos.Licenses,
		Assessments:   repos.Assessments,
		Notifications: repos.Notifications,
		EmailLogs:     repos.EmailLogs,
		Contacts:      contacts,
		Mailer:        mail,
		Renderer:      renderer,
		SMS:           sms,
		Indexer:       indexer,
	}, notification.Options{
		EmailEnabled: cfg.Notifications.Email.Enabled,
		SMSEnabled:   cfg.Notifications.SMS.Enabled,
		BaseURL:      cfg.App.BaseURL,
	}, log)

	amlService := aml.NewService(repos.AML, aml.NewHTTPScreener(cfg.Integrations.Screening, log), dispatcher, log)

	aggregator := dashboard.NewAggregator(dashboard.Deps{
		Certificates:  repos.Certificates,
		Licenses:      repos.Licenses,
		Assessments:   repos.Assessments,
		Portfolio:     repos.Portfolio,
		Notifications: repos.Notifications,
		AML:           repos.AML,
	}, log)

	// --- Zeebe workers ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	var workers []worker.JobWorker
	checksCfg := config.GetWorkerConfig(cfg, checks.TaskType)
	checksHandler := checks.NewHandler(&checks.Config{Timeout: config.GetDuration(checksCfg.Timeout)}, dispatcher, log)
	if w := camunda.StartWorker(zeebe.GetClient(), checks.TaskType, checksCfg, obs.WrapJobHandler(checks.TaskType, checksHandler.Handle), zapLog); w != nil {
		workers = append(workers, w)
	}

	screenCfg := config.GetWorkerConfig(cfg, screen.TaskType)
	screenHandler := screen.NewHandler(&screen.Config{Timeout: config.GetDuration(screenCfg.Timeout)}, amlService, log)
	if w := camunda.StartWorker(zeebe.GetClient(), screen.TaskType, screenCfg, obs.WrapJobHandler(screen.TaskType, screenHandler.Handle), zapLog); w != nil {
		workers = append(workers, w)
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- HTTP: RPC, cron, health and metrics ---
	handler := api.NewHandler(api.Deps{
		Dashboard:   aggregator,
		Inbox:       notification.NewInbox(repos.Notifications, readMarker, log),
		Search:      searcher,
		AML:         amlService,
		Screenings:  repos.AML,
		Assessments: repos.Assessments,
		Checks:      dispatcher,
		Preferences: contacts,
	}, api.Options{
		CronSecret: cfg.HTTP.CronSecret,
		Ready: func(ctx context.Context) error {
			if err := pg.Ping(ctx); err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			if err := rdb.Ping(ctx); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		},
	}, log)

	server := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	for _, w := range workers {
		w.Close()
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Compliance manager stopped gracefully")
}
