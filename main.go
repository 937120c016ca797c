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

	appledger "github.com/bookmesh/bookledger/internal/application/ledger"
	"github.com/bookmesh/bookledger/internal/application/purchasing"
	"github.com/bookmesh/bookledger/internal/config"
	"github.com/bookmesh/bookledger/internal/domain/catalog"
	"github.com/bookmesh/bookledger/internal/identity"
	"github.com/bookmesh/bookledger/internal/infrastructure/audit"
	"github.com/bookmesh/bookledger/internal/infrastructure/memory"
	"github.com/bookmesh/bookledger/internal/infrastructure/observability/oteltrace"
	"github.com/bookmesh/bookledger/internal/infrastructure/observability/prometrics"
	"github.com/bookmesh/bookledger/internal/infrastructure/observability/telemetry"
	"github.com/bookmesh/bookledger/internal/infrastructure/observability/zaplogger"
	"github.com/bookmesh/bookledger/internal/infrastructure/outbox"
	"github.com/bookmesh/bookledger/internal/infrastructure/redisstore"
	"github.com/bookmesh/bookledger/internal/infrastructure/registry"
	"github.com/bookmesh/bookledger/internal/observability"
	httppresentation "github.com/bookmesh/bookledger/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	baseLogger := zaplogger.New(
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)
	if syncer, ok := baseLogger.(interface{ Sync() error }); ok {
		defer func() { _ = syncer.Sync() }()
	}

	metricsRegistry := prometrics.New("bookledger", "")
	tel := telemetry.New(
		oteltrace.New(cfg.ServiceName),
		baseLogger,
		buildCounters(metricsRegistry),
		buildHistograms(metricsRegistry),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := outbox.NewBus(baseLogger)
	bus.Start(ctx)
	defer bus.Stop(context.Background())

	var books catalog.Repository
	var counter purchasing.PurchaseCounter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = client.Close() }()
		books = redisstore.NewCatalogRepository(client)
		counter = redisstore.NewPurchaseCounter(client)
		baseLogger.Info("store_selected", observability.F("store", "redis"), observability.F("addr", cfg.RedisAddr))
	} else {
		books = memory.NewCatalogRepository()
		counter = memory.NewPurchaseCounter()
		baseLogger.Info("store_selected", observability.F("store", "memory"))
	}

	ledgerService := appledger.NewService(identity.Actor(cfg.Owner), books, bus, tel)

	ledgers := registry.NewStatic()
	ledgers.Register(cfg.LedgerHandle, ledgerService)
	proxyService := purchasing.NewService(ledgers, counter, tel)

	auditWorker := audit.New(bus, baseLogger)
	auditWorker.Start()

	handler := httppresentation.NewHandler(proxyService, ledgers, baseLogger, tel.Metrics())

	root := http.NewServeMux()
	root.Handle("/metrics", promhttp.Handler())
	root.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: root,
	}

	go func() {
		baseLogger.Info("http_server_start", observability.F("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("http_server_error", observability.F("error", err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("http_server_shutdown_error", observability.F("error", err))
	} else {
		baseLogger.Info("http_server_stopped")
	}
}

func buildCounters(reg prometrics.Registry) map[observability.MetricKey]observability.Counter {
	return map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: reg.Counter("usecase_requests_total",
			"Total number of use case invocations.", "use_case", "outcome"),
		observability.MHTTPRequests: reg.Counter("http_requests_total",
			"Total HTTP requests processed.", "method", "route", "status"),
		observability.MLedgerBooks: reg.Counter("ledger_books_total",
			"Books ever added to the ledger."),
		observability.MLedgerBooksSold: reg.Counter("ledger_books_sold_total",
			"Copies sold through the ledger."),
		observability.MProxyPurchases: reg.Counter("proxy_purchases_total",
			"Purchases brokered by the proxy."),
		observability.MExternalRequests: reg.Counter("external_requests_total",
			"Calls from the proxy into a ledger.", "peer", "endpoint", "outcome"),
	}
}

func buildHistograms(reg prometrics.Registry) map[observability.MetricKey]observability.Histogram {
	return map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: reg.Histogram("usecase_duration_seconds",
			"Duration of use case execution in seconds.", nil, "use_case"),
		observability.MHTTPRequestDuration: reg.Histogram("http_request_duration_seconds",
			"Latency distribution of HTTP requests.", nil, "method", "route"),
		observability.MExternalRequestDuration: reg.Histogram("external_request_duration_seconds",
			"Latency of proxy-to-ledger calls.", nil, "peer", "endpoint"),
	}
}
