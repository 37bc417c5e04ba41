// Responsible for aggregating the telegrams broadcast by the interpreter API
// and writing the reports. Depends on the interpreter API being online.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/NotCoffee418/p1reader/pkg/aggregator"
	"github.com/NotCoffee418/p1reader/pkg/collector"
	"github.com/NotCoffee418/p1reader/pkg/config"
	"github.com/NotCoffee418/p1reader/pkg/logging"
	"github.com/NotCoffee418/p1reader/pkg/meterdb"
	"github.com/NotCoffee418/p1reader/pkg/metrics"
	"github.com/NotCoffee418/p1reader/pkg/pathing"
	"github.com/NotCoffee418/p1reader/pkg/transport"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Telegrams received before exiting in test mode.
const testTelegrams = 5

func main() {
	opts, err := config.ParseOptions("meter_collector", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log, err := logging.New(opts.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatalf("Failed to load meter collector config: %v", err)
	}
	log.Infof("Loaded config from %s", cfg.Path())

	m := metrics.New()
	engine := aggregator.NewEngine(aggregator.Config{
		MeasurementPeriod: config.Get[int64](cfg, "weekly_log", "measurement_period", aggregator.DefaultMeasurementPeriod),
		BatchWindow:       config.Get[int64](cfg, "p1_reader_interval", "window", aggregator.DefaultBatchWindow),
		Logger:            log,
		Metrics:           m,
	})

	collectorOpts := collector.Options{
		Engine:     engine,
		Source:     newSource(cfg, log),
		Files:      collector.FilesFromConfig(cfg),
		Policies:   collector.PoliciesFromConfig(cfg),
		MinBatches: collector.MinBatchesFromConfig(cfg),
		Logger:     log,
		Metrics:    m,
	}
	if opts.Test {
		collectorOpts.StopAfter = testTelegrams
	}

	// Initialize database
	if config.Get(cfg, "meterdb", "enabled", false) {
		store, err := meterdb.Open(config.Get(cfg, "meterdb", "path", pathing.GetMeterDbPath()), log)
		if err != nil {
			log.Fatalf("Failed to open meter db: %v", err)
		}
		defer store.Close()
		collectorOpts.Archive = store
	}

	if addr := config.Get(cfg, "metrics", "listen_address", ""); addr != "" {
		go func() {
			log.Infof("Serving metrics on %s", addr)
			if err := http.ListenAndServe(addr, m.Handler()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("Metrics server failed: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1)
	defer stop()

	if err := collector.New(collectorOpts).Run(ctx); err != nil {
		log.Errorf("Collector stopped: %v", err)
		os.Exit(1)
	}
	log.Info("Stopped")
}

func newSource(cfg *config.Config, log logrus.FieldLogger) transport.Source {
	retryDelay := config.Get(cfg, "transport", "retry_delay_seconds", transport.DefaultRetryDelay)
	if config.Get(cfg, "transport", "kind", "websocket") == "mqtt" {
		clientID := config.Get(cfg, "mqtt", "client_id", "")
		if clientID == "" {
			clientID = "p1collector-" + uuid.NewString()[:8]
		}
		return transport.NewMQTTSubscriber(transport.MQTTOptions{
			Broker:     config.Get(cfg, "mqtt", "broker", "tcp://localhost:1883"),
			Topic:      config.Get(cfg, "mqtt", "topic", "p1/telegram"),
			ClientID:   clientID,
			RetryDelay: retryDelay,
		}, log)
	}

	// Set the host:port from env var INTERPRETER_API_HOST
	host := os.Getenv("INTERPRETER_API_HOST")
	if host == "" {
		host = config.Get(cfg, "transport", "host", "localhost:9039")
	}
	return transport.NewWebSocketListener(host, retryDelay, log)
}
