// Interpreter API is responsible for reading the P1 port and broadcasting the telegrams.
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

	"github.com/NotCoffee418/p1reader/pkg/api"
	"github.com/NotCoffee418/p1reader/pkg/config"
	"github.com/NotCoffee418/p1reader/pkg/logging"
	"github.com/NotCoffee418/p1reader/pkg/metrics"
	"github.com/NotCoffee418/p1reader/pkg/port_reader"
	"github.com/NotCoffee418/p1reader/pkg/telegram"
	"github.com/NotCoffee418/p1reader/pkg/transport"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"
)

// Telegrams read before exiting in test mode.
const testTelegrams = 5

func main() {
	opts, err := config.ParseOptions("interpreter_api", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log, err := logging.New(opts.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Load config
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatalf("Failed to load interpreter API config: %v", err)
	}
	log.Infof("Loaded config from %s", cfg.Path())

	m := metrics.New()
	senderID := uuid.NewString()
	log.Infof("Publishing as sender %s", senderID)

	decoder := telegram.NewDecoder(telegram.DecoderConfig{
		Logger:         log,
		Metrics:        m,
		ReportChecksum: config.Get(cfg, "telegram", "checksum_report", false),
		SenderID:       senderID,
	})
	p1Reader := port_reader.NewP1Reader(port_reader.Options{
		Device:     config.Get(cfg, "serial", "device", "/dev/ttyUSB0"),
		Baudrate:   config.Get(cfg, "serial", "baudrate", uint(115200)),
		RetryDelay: config.Get(cfg, "serial", "retry_delay_seconds", port_reader.DefaultRetryDelay),
		Decoder:    decoder,
		Logger:     log,
		Metrics:    m,
	})

	hub := transport.NewHub(log, m)
	publishers := []transport.Publisher{hub}
	if config.Get(cfg, "transport", "kind", "websocket") == "mqtt" {
		mqttPublisher := transport.NewMQTTPublisher(mqttOptions(cfg, "p1reader-"+senderID[:8]), log, m)
		defer mqttPublisher.Close()
		publishers = append(publishers, mqttPublisher)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1)
	defer stop()

	accessLog := log.WriterLevel(logrus.DebugLevel)
	defer accessLog.Close()
	server := &http.Server{
		Addr: fmt.Sprintf("%s:%d",
			config.Get(cfg, "transport", "listen_address", "0.0.0.0"),
			config.Get(cfg, "transport", "listen_port", 9039)),
		Handler: handlers.LoggingHandler(accessLog, api.NewRouter(p1Reader.GetLatestMessage, hub, m)),
	}
	go func() {
		log.Infof("Starting P1 Interpreter API on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Start reading P1 port until a signal arrives
	count := 0
	err = p1Reader.Run(ctx, func(msg *telegram.Message) {
		for _, p := range publishers {
			p.Publish(msg)
		}
		count++
		if opts.Test && count >= testTelegrams {
			log.Info("End of test")
			stop()
		}
	})
	if err != nil {
		log.Errorf("Reader stopped: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
	log.Info("Stopped")
}

func mqttOptions(cfg *config.Config, defaultClientID string) transport.MQTTOptions {
	clientID := config.Get(cfg, "mqtt", "client_id", "")
	if clientID == "" {
		clientID = defaultClientID
	}
	return transport.MQTTOptions{
		Broker:     config.Get(cfg, "mqtt", "broker", "tcp://localhost:1883"),
		Topic:      config.Get(cfg, "mqtt", "topic", "p1/telegram"),
		ClientID:   clientID,
		RetryDelay: config.Get(cfg, "transport", "retry_delay_seconds", transport.DefaultRetryDelay),
	}
}
