// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// airgauged samples a BME680-class air sensor, runs the IAQ estimation
// engine over the readings, and publishes telemetry over MQTT alongside a
// Prometheus metrics endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/airgauge/airgauge/alert"
	"github.com/airgauge/airgauge/bme680"
	"github.com/airgauge/airgauge/iaq"
	"github.com/airgauge/airgauge/internal/durations"
	"github.com/airgauge/airgauge/metrics"
	"github.com/airgauge/airgauge/mqttpub"
	"github.com/airgauge/airgauge/store"
	"github.com/airgauge/airgauge/store/memory"
	"github.com/airgauge/airgauge/store/postgres"
	"github.com/airgauge/airgauge/store/sqlite"
)

// CLI args
var (
	listenAddr   = flag.String("listen-address", envString("AIRGAUGE_LISTEN_ADDRESS", ":8080"), "The address to listen on for HTTP requests.")
	readInterval = flag.Duration("read-int", envDuration("AIRGAUGE_READ_INTERVAL", 3*time.Second), "time interval between sensor reads")
	statePath    = flag.String("state", envString("AIRGAUGE_STATE", "airgauge.db"), "calibration store: SQLite file path, postgres:// DSN, or empty for in-memory")
	saveEvery    = flag.Int("save-every", 60, "accepted samples between calibration saves")
	topicPrefix  = flag.String("topic-prefix", envString("AIRGAUGE_TOPIC_PREFIX", ""), `MQTT topic prefix (default "sensor/bme680")`)
	tempOffset   = flag.Float64("temp-offset", 0, "degC added to raw temperature readings")
	humOffset    = flag.Float64("hum-offset", 0, "percentage points added to raw humidity readings")
	debug        = flag.Bool("debug", false, "enable debug logging")
)

type Application struct {
	state     store.Store
	engine    *iaq.Engine
	client    *mqttpub.Client
	publisher *mqttpub.Publisher
	source    bme680.Source
	monitor   *bme680.Monitor
	recorder  *metrics.Recorder
	alerts    *alert.Controller
	server    *http.Server
	log       *slog.Logger

	interval time.Duration
	done     chan struct{}

	// Touched only from the sample loop.
	progress  int
	summaryAt time.Time
}

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: level,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := NewApplication(ctx, log)
	if err != nil {
		log.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Start(ctx); err != nil {
		log.Error("failed to start application", "error", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down...")
	cancel()
	app.Wait()
}

func NewApplication(ctx context.Context, log *slog.Logger) (*Application, error) {
	state, err := openStore(ctx, *statePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open calibration store: %w", err)
	}

	engine := iaq.New(
		iaq.WithStore(state),
		iaq.WithTemperatureOffset(*tempOffset),
		iaq.WithHumidityOffset(*humOffset),
		iaq.WithLogger(log),
	)
	if err := engine.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize IAQ engine: %w", err)
	}

	provider, opts, err := mqttpub.ConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load MQTT configuration: %w", err)
	}
	if provider == nil {
		// Local development default, matching the subscriber tooling.
		provider = mqttpub.TCPConnection("localhost", 1883)
	}
	if opts.ClientID == "" {
		opts.ClientID = fmt.Sprintf("airgauge-%d", time.Now().UnixMilli())
	}

	var prefix []mqttpub.PublisherOption
	if *topicPrefix != "" {
		prefix = append(prefix, mqttpub.WithTopicPrefix(*topicPrefix))
	}

	client := mqttpub.New(provider, opts,
		mqttpub.WithWill(mqttpub.StatusWill(opts.ClientID, prefix...)),
		mqttpub.WithLogger(log),
	)
	pubOpts := append([]mqttpub.PublisherOption{mqttpub.WithLogger(log)}, prefix...)
	publisher := mqttpub.NewPublisher(client, pubOpts...)

	app := &Application{
		state:     state,
		engine:    engine,
		client:    client,
		publisher: publisher,
		source:    &bme680.Simulator{},
		monitor:   bme680.NewMonitor(),
		recorder:  metrics.NewRecorder(opts.ClientID),
		alerts:    alert.NewController(nil, publisher, alert.WithLogger(log)),
		interval:  *readInterval,
		log:       log,
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/status", app.handleStatus)
	app.server = &http.Server{
		Addr:              *listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	client.RegisterFatalErrorHandler(func(err error) {
		// Measurement and metrics carry on without the broker.
		log.Error("MQTT client terminated", "error", err)
	})

	return app, nil
}

func (a *Application) Start(ctx context.Context) error {
	if err := a.client.Start(); err != nil {
		return fmt.Errorf("failed to start MQTT client: %w", err)
	}
	if err := a.publisher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start publisher: %w", err)
	}
	if err := a.alerts.Start(ctx); err != nil {
		return fmt.Errorf("failed to start alert controller: %w", err)
	}

	go a.serveMetrics()

	a.done = make(chan struct{})
	go a.run(ctx)

	a.log.Info("airgauged started",
		"device", a.client.ID(),
		"interval", a.interval,
		"listen", a.server.Addr,
	)
	return nil
}

// Wait blocks until the sample loop has drained after cancellation.
func (a *Application) Wait() {
	if a.done != nil {
		<-a.done
	}
}

// Close saves the calibration one last time, announces the device offline,
// and releases everything. Callers must stop the sample loop first.
func (a *Application) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.alerts.Stop()

	if err := a.engine.SaveState(ctx); err != nil {
		a.log.Warn("failed to save calibration", "error", err)
	}
	if err := a.publisher.Stop(ctx); err != nil {
		a.log.Warn("failed to announce offline", "error", err)
	}
	if err := a.client.Stop(); err != nil {
		a.log.Warn("failed to stop MQTT client", "error", err)
	}
	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Warn("failed to stop metrics server", "error", err)
	}
	if err := a.state.Close(); err != nil {
		a.log.Warn("failed to close calibration store", "error", err)
	}
}

func (a *Application) serveMetrics() {
	a.log.Info("serving metrics", "address", a.server.Addr)
	if err := a.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		a.log.Error("metrics server failed", "error", err)
	}
}

// openStore picks the persistence backend from the configured location: a
// Postgres DSN, an empty string for in-memory, or a SQLite file path.
func openStore(ctx context.Context, path string) (store.Store, error) {
	switch {
	case path == "":
		return memory.New(), nil
	case strings.HasPrefix(path, "postgres://"),
		strings.HasPrefix(path, "postgresql://"):
		return postgres.Open(ctx, path, iaq.StateNamespace)
	default:
		return sqlite.Open(path, iaq.StateNamespace)
	}
}

func envString(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}

func envDuration(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	d, err := durations.Parse(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid %s: %v\n", name, err)
		os.Exit(2)
	}
	return d
}
