package observability

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Subscription states reported through MoveSubscription. A closed
// subscription has no state.
const (
	StateConnecting   = "connecting"
	StateConnected    = "connected"
	StateReconnecting = "reconnecting"
)

// OutcomeSuccess is the code label used for requests that succeeded
const OutcomeSuccess = "OK"

// Recorder receives the transport's and subscriber's measurements. It is the
// metrics half of the observability sink; implementations must be safe for
// concurrent use.
type Recorder interface {
	// RecordAttempt records one exchange. status is 0 when no response was
	// received.
	RecordAttempt(ctx context.Context, method string, status int, duration time.Duration)
	// RecordRetry records a scheduled retry and its backoff delay.
	RecordRetry(ctx context.Context, method string, attempt int, delay time.Duration)
	// RecordRequest records a logical request once it reaches a terminal
	// state. code is OutcomeSuccess or the normalized error code.
	RecordRequest(ctx context.Context, method, code string, duration time.Duration)

	// RecordReconnect records a subscription reopening its channel.
	RecordReconnect(mode string)
	// RecordEvent records a delivered event frame.
	RecordEvent(eventType string)
	// RecordParseError records a frame that could not be parsed.
	RecordParseError()
	// MoveSubscription moves one subscription from one state to another.
	// from is empty for a new subscription, to is empty once it closes.
	MoveSubscription(from, to string)
}

// NopRecorder discards all measurements
type NopRecorder struct{}

func (NopRecorder) RecordAttempt(context.Context, string, int, time.Duration)   {}
func (NopRecorder) RecordRetry(context.Context, string, int, time.Duration)     {}
func (NopRecorder) RecordRequest(context.Context, string, string, time.Duration) {}
func (NopRecorder) RecordReconnect(string)                                       {}
func (NopRecorder) RecordEvent(string)                                           {}
func (NopRecorder) RecordParseError()                                            {}
func (NopRecorder) MoveSubscription(string, string)                              {}

// MetricsConfig configures the Prometheus recorder
type MetricsConfig struct {
	// Namespace prefixes every metric name (default: tracker)
	Namespace string
	Subsystem string

	// HistogramBuckets are the latency buckets in milliseconds
	HistogramBuckets []float64

	// ConstLabels are added to every metric
	ConstLabels prometheus.Labels

	// Registerer receives the collectors. Defaults to
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer

	// MetricsAddr and MetricsPath configure the optional HTTP endpoint
	// served by Start (defaults: ":9090", "/metrics").
	MetricsAddr string
	MetricsPath string
}

// PrometheusRecorder implements Recorder with Prometheus collectors
type PrometheusRecorder struct {
	config MetricsConfig

	attemptsTotal    *prometheus.CounterVec
	attemptDuration  *prometheus.HistogramVec
	retriesTotal     *prometheus.CounterVec
	retryDelay       *prometheus.HistogramVec
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	reconnectsTotal  *prometheus.CounterVec
	eventsTotal      *prometheus.CounterVec
	parseErrorsTotal prometheus.Counter
	subscriptions    *prometheus.GaugeVec

	mu     sync.Mutex
	server *http.Server
}

// NewPrometheusRecorder creates the collectors and registers them
func NewPrometheusRecorder(config MetricsConfig) (*PrometheusRecorder, error) {
	if config.Namespace == "" {
		config.Namespace = "tracker"
	}
	if config.HistogramBuckets == nil {
		config.HistogramBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 15000}
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.DefaultRegisterer
	}
	if config.MetricsAddr == "" {
		config.MetricsAddr = ":9090"
	}
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}

	r := &PrometheusRecorder{config: config}
	r.initializeMetrics()

	if err := r.registerMetrics(); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return r, nil
}

func (r *PrometheusRecorder) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   r.config.Namespace,
		Subsystem:   r.config.Subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: r.config.ConstLabels,
	}
}

func (r *PrometheusRecorder) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   r.config.Namespace,
		Subsystem:   r.config.Subsystem,
		Name:        name,
		Help:        help,
		Buckets:     r.config.HistogramBuckets,
		ConstLabels: r.config.ConstLabels,
	}
}

func (r *PrometheusRecorder) initializeMetrics() {
	r.attemptsTotal = prometheus.NewCounterVec(
		r.counterOpts("attempts_total", "Exchanges issued, by method and HTTP status (0 when no response)"),
		[]string{"method", "status"},
	)
	r.attemptDuration = prometheus.NewHistogramVec(
		r.histogramOpts("attempt_duration_milliseconds", "Duration of single exchanges in milliseconds"),
		[]string{"method"},
	)
	r.retriesTotal = prometheus.NewCounterVec(
		r.counterOpts("retries_total", "Retries scheduled by the retry controller"),
		[]string{"method"},
	)
	r.retryDelay = prometheus.NewHistogramVec(
		r.histogramOpts("retry_delay_milliseconds", "Backoff delay before each retry in milliseconds"),
		[]string{"method"},
	)
	r.requestsTotal = prometheus.NewCounterVec(
		r.counterOpts("requests_total", "Logical requests by terminal outcome code"),
		[]string{"method", "code"},
	)
	r.requestDuration = prometheus.NewHistogramVec(
		r.histogramOpts("request_duration_milliseconds", "Duration of logical requests including retries in milliseconds"),
		[]string{"method"},
	)
	r.reconnectsTotal = prometheus.NewCounterVec(
		r.counterOpts("subscription_reconnects_total", "Event channel reconnects"),
		[]string{"mode"},
	)
	r.eventsTotal = prometheus.NewCounterVec(
		r.counterOpts("events_total", "Event frames delivered, by event type"),
		[]string{"type"},
	)
	r.parseErrorsTotal = prometheus.NewCounter(
		r.counterOpts("event_parse_errors_total", "Event frames that failed to parse"),
	)
	r.subscriptions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   r.config.Namespace,
			Subsystem:   r.config.Subsystem,
			Name:        "subscriptions",
			Help:        "Open subscriptions, by connection state",
			ConstLabels: r.config.ConstLabels,
		},
		[]string{"state"},
	)
}

// registerMetrics registers every collector. A collector that is already
// registered (a second recorder on the same registry) is replaced by the
// existing one so both recorders feed the same series.
func (r *PrometheusRecorder) registerMetrics() error {
	reg := r.config.Registerer
	var err error

	if r.attemptsTotal, err = register(reg, r.attemptsTotal); err != nil {
		return err
	}
	if r.attemptDuration, err = register(reg, r.attemptDuration); err != nil {
		return err
	}
	if r.retriesTotal, err = register(reg, r.retriesTotal); err != nil {
		return err
	}
	if r.retryDelay, err = register(reg, r.retryDelay); err != nil {
		return err
	}
	if r.requestsTotal, err = register(reg, r.requestsTotal); err != nil {
		return err
	}
	if r.requestDuration, err = register(reg, r.requestDuration); err != nil {
		return err
	}
	if r.reconnectsTotal, err = register(reg, r.reconnectsTotal); err != nil {
		return err
	}
	if r.eventsTotal, err = register(reg, r.eventsTotal); err != nil {
		return err
	}
	if r.parseErrorsTotal, err = register(reg, r.parseErrorsTotal); err != nil {
		return err
	}
	if r.subscriptions, err = register(reg, r.subscriptions); err != nil {
		return err
	}
	return nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if stderrors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordAttempt records one exchange
func (r *PrometheusRecorder) RecordAttempt(_ context.Context, method string, status int, duration time.Duration) {
	r.attemptsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	r.attemptDuration.WithLabelValues(method).Observe(milliseconds(duration))
}

// RecordRetry records a scheduled retry
func (r *PrometheusRecorder) RecordRetry(_ context.Context, method string, _ int, delay time.Duration) {
	r.retriesTotal.WithLabelValues(method).Inc()
	r.retryDelay.WithLabelValues(method).Observe(milliseconds(delay))
}

// RecordRequest records a logical request outcome
func (r *PrometheusRecorder) RecordRequest(_ context.Context, method, code string, duration time.Duration) {
	r.requestsTotal.WithLabelValues(method, code).Inc()
	r.requestDuration.WithLabelValues(method).Observe(milliseconds(duration))
}

// RecordReconnect records a channel reconnect
func (r *PrometheusRecorder) RecordReconnect(mode string) {
	r.reconnectsTotal.WithLabelValues(mode).Inc()
}

// RecordEvent records a delivered event
func (r *PrometheusRecorder) RecordEvent(eventType string) {
	r.eventsTotal.WithLabelValues(eventType).Inc()
}

// RecordParseError records an unparseable frame
func (r *PrometheusRecorder) RecordParseError() {
	r.parseErrorsTotal.Inc()
}

// MoveSubscription shifts one subscription between the per-state counts
func (r *PrometheusRecorder) MoveSubscription(from, to string) {
	if from != "" {
		r.subscriptions.WithLabelValues(from).Dec()
	}
	if to != "" {
		r.subscriptions.WithLabelValues(to).Inc()
	}
}

// Handler returns the HTTP handler exposing the recorder's registry
func (r *PrometheusRecorder) Handler() http.Handler {
	if g, ok := r.config.Registerer.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// Start serves Handler on MetricsAddr until Shutdown is called
func (r *PrometheusRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.server != nil {
		return fmt.Errorf("metrics server already started")
	}

	mux := http.NewServeMux()
	mux.Handle(r.config.MetricsPath, r.Handler())

	r.server = &http.Server{
		Addr:              r.config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv := r.server
	go func() {
		_ = srv.ListenAndServe()
	}()

	return nil
}

// Shutdown gracefully shuts down the metrics server
func (r *PrometheusRecorder) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	srv := r.server
	r.server = nil
	r.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
