package epics2midas

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ucn-triumf/epics2midas-modern/internal/adapters/alarm"
	"github.com/ucn-triumf/epics2midas-modern/internal/adapters/modbus"
	"github.com/ucn-triumf/epics2midas-modern/internal/adapters/observability"
	"github.com/ucn-triumf/epics2midas-modern/internal/adapters/odb"
	"github.com/ucn-triumf/epics2midas-modern/internal/adapters/opcua"
	"github.com/ucn-triumf/epics2midas-modern/internal/adapters/recfile"
	"github.com/ucn-triumf/epics2midas-modern/internal/app/frontend"
	"github.com/ucn-triumf/epics2midas-modern/internal/measure"
	"github.com/ucn-triumf/epics2midas-modern/internal/ports"
	"github.com/ucn-triumf/epics2midas-modern/internal/record"
)

// RuntimeOption customizes the collaborators used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	dialer        Dialer
	varStore      VariableStore
	alarmSink     AlarmSink
	recordSink    RecordSink
	observability Observability
}

// WithDialer injects a custom channel transport (simulators, fakes, other
// protocols).
func WithDialer(d Dialer) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.dialer = d
	}
}

// WithVariableStore replaces the SQL-backed Measured mirror.
func WithVariableStore(s VariableStore) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.varStore = s
	}
}

// WithAlarmSink routes failure reports to a custom facility.
func WithAlarmSink(a AlarmSink) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.alarmSink = a
	}
}

// WithRecordSink receives the periodically emitted binary records.
func WithRecordSink(s RecordSink) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.recordSink = s
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// Runtime wires registry → poll cycle → measurement store → record
// emitter into one constructed object, so several independent frontends
// can coexist in a process and tests can swap every collaborator.
type Runtime struct {
	cfg   *Config
	obs   ports.Observability
	alarm ports.AlarmSink

	dialer   ports.Dialer
	varStore ports.VariableStore
	sink     ports.RecordSink

	registry *frontend.Registry
	store    *measure.Store
	sampler  *frontend.Sampler
	cycle    *frontend.Cycle
	emitter  *record.Emitter

	db         *sql.DB
	recWriter  *recfile.Writer
	metricsSrv *http.Server

	cycleDoneCh chan struct{}
	pubDoneCh   chan struct{}
}

// NewRuntime bootstraps the default adapters (transport dialer from the
// configured source, SQL variables mirror, record file sink, Prometheus
// observability, log alarm funnel). RuntimeOption values override any of
// them.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs()
	}

	alarmSink := overrides.alarmSink
	if alarmSink == nil {
		alarmSink = alarm.NewLogSink(obs)
	}

	dialer := overrides.dialer
	if dialer == nil {
		var err error
		dialer, err = buildDialer(cfg)
		if err != nil {
			return nil, err
		}
	}

	var db *sql.DB
	varStore := overrides.varStore
	if varStore == nil && cfg.ODB.ConnString != "" {
		var err error
		db, err = sql.Open("postgres", cfg.ODB.ConnString)
		if err != nil {
			return nil, err
		}
		varStore = odb.NewPGStore(db, cfg.ODB.Table, cfg.Equipment)
	}

	var recWriter *recfile.Writer
	sink := overrides.recordSink
	if sink == nil && cfg.Record.Path != "" {
		var err error
		recWriter, err = recfile.NewWriter(cfg.Record.Path)
		if err != nil {
			if db != nil {
				db.Close()
			}
			return nil, err
		}
		sink = recWriter
	}

	channels := cfg.DomainChannels()

	registry, err := frontend.NewRegistry(channels, dialer, alarmSink, obs, cfg.ConnectTimeout())
	if err != nil {
		return nil, err
	}

	store := measure.New(len(channels), varStore, alarmSink)

	sampler, err := frontend.NewSampler(registry, store, alarmSink, obs, cfg.ReadTimeout())
	if err != nil {
		return nil, err
	}

	cycle, err := frontend.NewCycle(sampler, cfg.UpdateInterval(), cfg.Tick())
	if err != nil {
		return nil, err
	}

	emitter, err := record.NewEmitter(store, len(channels))
	if err != nil {
		return nil, err
	}

	return &Runtime{
		cfg:       cfg,
		obs:       obs,
		alarm:     alarmSink,
		dialer:    dialer,
		varStore:  varStore,
		sink:      sink,
		registry:  registry,
		store:     store,
		sampler:   sampler,
		cycle:     cycle,
		emitter:   emitter,
		db:        db,
		recWriter: recWriter,
	}, nil
}

func buildDialer(cfg *Config) (ports.Dialer, error) {
	if !cfg.HasAddressedChannels() {
		return noopDialer{}, nil
	}
	switch cfg.Source {
	case "modbus":
		return modbus.NewDialer(cfg.Modbus)
	default:
		return opcua.NewDialer(cfg.OPCUA)
	}
}

// Start initializes the external store, connects all channels, and
// launches the poll cycle, metrics server, and record publisher. A
// connect failure aborts startup; channels connected before the failure
// are released by Shutdown. The goroutines stop when ctx is cancelled.
func (r *Runtime) Start(ctx context.Context) error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}

	if r.varStore != nil {
		if err := r.varStore.EnsureMeasured(ctx, r.registry.Len()); err != nil {
			return fmt.Errorf("ensure measured array: %w", err)
		}
	}

	if err := r.registry.ConnectAll(ctx); err != nil {
		return err
	}

	r.startMetrics()

	r.cycleDoneCh = make(chan struct{})
	go func() {
		defer close(r.cycleDoneCh)
		_ = r.cycle.Run(ctx)
	}()

	if r.sink != nil && r.cfg.RecordInterval() > 0 {
		r.pubDoneCh = make(chan struct{})
		go r.runPublisher(ctx)
	}

	return nil
}

// Run starts the runtime and blocks until the provided context is
// cancelled, then attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown waits for the loops to exit and closes the transport, metrics
// server, record file, and database connection.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	for _, done := range []chan struct{}{r.cycleDoneCh, r.pubDoneCh} {
		if done == nil {
			continue
		}
		select {
		case <-done:
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}
	}

	if r.dialer != nil {
		if err := r.dialer.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.recWriter != nil {
		if err := r.recWriter.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// EmitRecord returns the bare measurement payload, 4 bytes per channel in
// index order. Safe to call while a sweep is in progress.
func (r *Runtime) EmitRecord() ([]byte, error) {
	return r.emitter.Emit()
}

// EmitEvent returns the payload framed as a measurement bank.
func (r *Runtime) EmitEvent() ([]byte, error) {
	return r.emitter.EmitEvent()
}

// Sweeps reports how many poll sweeps have completed.
func (r *Runtime) Sweeps() uint64 { return r.cycle.Sweeps() }

func (r *Runtime) runPublisher(ctx context.Context) {
	defer close(r.pubDoneCh)

	ticker := time.NewTicker(r.cfg.RecordInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rec, err := r.emitter.EmitEvent()
			if err != nil {
				r.alarm.Report(SeverityError, "record_emit", err.Error())
				continue
			}
			if err := r.sink.WriteRecord(rec); err != nil {
				r.alarm.Report(SeverityError, "record_sink",
					fmt.Sprintf("sink %s: %v", r.sink.Name(), err))
				continue
			}
			r.obs.IncCounter("e2m_records_emitted_total", 1)
		}
	}
}

func (r *Runtime) startMetrics() {
	if r.cfg.Metrics.Addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()
}

// Open loads YAML from disk and builds a runtime in one call.
func Open(path string, opts ...RuntimeOption) (*Runtime, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewRuntime(cfg, opts...)
}

// noopDialer backs configurations whose channels are all disabled or
// address-less; it must never actually be dialed.
type noopDialer struct{}

func (noopDialer) Dial(ctx context.Context, address string) (ports.Conn, error) {
	return nil, fmt.Errorf("no transport configured for address %q", address)
}

func (noopDialer) Close(ctx context.Context) error { return nil }
