package transport

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ajitpratap0/tracker-sdk-go/pkg/auth"
	trackererrors "github.com/ajitpratap0/tracker-sdk-go/pkg/errors"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/logging"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/observability"
)

// Defaults applied by DefaultTransportConfig
const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxAttempts = 3
	DefaultMinDelay    = time.Second
	DefaultFactor      = 2.0
	DefaultUserAgent   = "tracker-sdk-go"
)

// Doer is the pluggable exchange primitive. *http.Client satisfies it; tests
// and embedders can supply anything that turns a request into a response.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TransportConfig holds the complete transport configuration. NewTransport
// copies it; changing a config after construction has no effect.
type TransportConfig struct {
	// BaseURL is the API root, e.g. "https://tracker.example.com/api/v1".
	// A trailing slash is removed.
	BaseURL string `json:"baseUrl"`

	// TokenProvider is consulted before every attempt. Nil sends no
	// Authorization header.
	TokenProvider auth.TokenProvider `json:"-"`

	// HTTPClient performs the exchanges. Nil uses an *http.Client without a
	// client-level timeout.
	HTTPClient Doer `json:"-"`

	// Timeout bounds each attempt, not the whole logical request
	Timeout time.Duration `json:"timeout"`

	Retry RetryPolicy `json:"retry"`

	// Headers are sent on every request
	Headers   map[string]string `json:"headers,omitempty"`
	UserAgent string            `json:"userAgent,omitempty"`

	Logger     logging.Logger                 `json:"-"`
	Metrics    observability.Recorder         `json:"-"`
	Tracing    *observability.TracingProvider `json:"-"`
	RequestIDs logging.RequestIDGenerator     `json:"-"`

	Features FeatureConfig `json:"features"`
}

// RetryPolicy configures the retry controller
type RetryPolicy struct {
	// MaxAttempts is the number of retries after the first attempt
	MaxAttempts int `json:"maxAttempts"`
	// MinDelay is the delay before the first retry
	MinDelay time.Duration `json:"minDelay"`
	// Factor multiplies the delay for each further retry
	Factor float64 `json:"factor"`
	// MaxDelay caps a single delay. Zero leaves delays uncapped.
	MaxDelay time.Duration `json:"maxDelay,omitempty"`
}

// FeatureConfig toggles the middleware layers. The retry layer is on unless
// disabled; a zero RetryPolicy.MaxAttempts already means no retries.
type FeatureConfig struct {
	DisableReliability  bool `json:"disableReliability"`
	EnableObservability bool `json:"enableObservability"`
}

// DefaultRetryPolicy returns {3, 1s, 2}
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		MinDelay:    DefaultMinDelay,
		Factor:      DefaultFactor,
	}
}

// DefaultTransportConfig returns a configuration with sensible defaults for baseURL
func DefaultTransportConfig(baseURL string) TransportConfig {
	return TransportConfig{
		BaseURL:   baseURL,
		Timeout:   DefaultTimeout,
		Retry:     DefaultRetryPolicy(),
		UserAgent: DefaultUserAgent,
		Features: FeatureConfig{
			EnableObservability: true,
		},
	}
}

// validateTransportConfig returns every problem with config as one
// INVALID_CONFIG error
func validateTransportConfig(config TransportConfig) error {
	var errs []*trackererrors.APIError

	if config.BaseURL == "" {
		errs = append(errs, trackererrors.InvalidConfig("baseUrl", config.BaseURL, "required"))
	} else if u, err := url.Parse(config.BaseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, trackererrors.InvalidConfig("baseUrl", config.BaseURL, "must be an absolute http or https URL"))
	}

	if config.Timeout < 0 {
		errs = append(errs, trackererrors.InvalidConfig("timeout", config.Timeout.String(), "must not be negative"))
	}

	retry := config.Retry
	if retry.MaxAttempts < 0 {
		errs = append(errs, trackererrors.InvalidConfig("retry.maxAttempts", retry.MaxAttempts, "must not be negative"))
	}
	if retry.MinDelay < 0 {
		errs = append(errs, trackererrors.InvalidConfig("retry.minDelay", retry.MinDelay.String(), "must not be negative"))
	}
	if retry.MaxAttempts > 0 && retry.Factor != 0 && retry.Factor < 1 {
		errs = append(errs, trackererrors.InvalidConfig("retry.factor", retry.Factor, "must be at least 1"))
	}
	if retry.MaxDelay < 0 {
		errs = append(errs, trackererrors.InvalidConfig("retry.maxDelay", retry.MaxDelay.String(), "must not be negative"))
	}

	if len(errs) == 0 {
		return nil
	}
	return trackererrors.CombineConfigErrors(errs)
}

// applyDefaults fills the zero values that have an obvious default. Retry
// counts and delays are taken as given: zero attempts means no retries.
func applyDefaults(config TransportConfig) TransportConfig {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Retry.Factor == 0 {
		config.Retry.Factor = DefaultFactor
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Logger == nil {
		config.Logger = logging.NewNopLogger()
	}
	if config.Metrics == nil {
		config.Metrics = observability.NopRecorder{}
	}
	if config.RequestIDs == nil {
		config.RequestIDs = &logging.UUIDGenerator{}
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Transport: logging.NewRoundTripper(http.DefaultTransport, config.Logger)}
	}

	headers := make(map[string]string, len(config.Headers))
	for k, v := range config.Headers {
		headers[k] = v
	}
	config.Headers = headers
	return config
}

// FileConfig is the on-disk form of the transport and subscriber settings.
// Durations are integer milliseconds.
//
//	base_url = "https://tracker.example.com/api/v1"
//	timeout_ms = 15000
//	token_env = "TRACKER_TOKEN"
//
//	[retry]
//	max_attempts = 3
//	min_delay_ms = 1000
//	factor = 2.0
//
//	[events]
//	mode = "auto"
//	reconnect_delay_ms = 5000
type FileConfig struct {
	BaseURL   string            `toml:"base_url"`
	TimeoutMS int64             `toml:"timeout_ms"`
	UserAgent string            `toml:"user_agent"`
	Token     string            `toml:"token"`
	TokenEnv  string            `toml:"token_env"`
	Headers   map[string]string `toml:"headers"`

	Retry    FileRetryConfig   `toml:"retry"`
	Features FileFeatureConfig `toml:"features"`
	Events   FileEventsConfig  `toml:"events"`
	Log      FileLogConfig     `toml:"log"`
	Metrics  FileMetricsConfig `toml:"metrics"`
}

// FileRetryConfig is the [retry] table. Unset keys keep the defaults.
type FileRetryConfig struct {
	MaxAttempts *int     `toml:"max_attempts"`
	MinDelayMS  *int64   `toml:"min_delay_ms"`
	Factor      *float64 `toml:"factor"`
	MaxDelayMS  int64    `toml:"max_delay_ms"`
}

// FileFeatureConfig is the [features] table
type FileFeatureConfig struct {
	Reliability   *bool `toml:"reliability"`
	Observability *bool `toml:"observability"`
}

// FileEventsConfig is the [events] table
type FileEventsConfig struct {
	Path             string `toml:"path"`
	Mode             string `toml:"mode"`
	ReconnectDelayMS int64  `toml:"reconnect_delay_ms"`
}

// FileLogConfig is the [log] table
type FileLogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// FileMetricsConfig is the [metrics] table
type FileMetricsConfig struct {
	Addr      string `toml:"addr"`
	Path      string `toml:"path"`
	Namespace string `toml:"namespace"`
}

// LoadConfigFile reads a TOML configuration file
func LoadConfigFile(path string) (*FileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	config, err := DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// DecodeConfig decodes a TOML configuration. Unknown keys are an error.
func DecodeConfig(r io.Reader) (*FileConfig, error) {
	var config FileConfig
	md, err := toml.NewDecoder(r).Decode(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return &config, nil
}

// TransportConfig converts the file settings, starting from
// DefaultTransportConfig. The returned config has no logger, metrics or
// HTTP client; callers add those.
func (c *FileConfig) TransportConfig() TransportConfig {
	config := DefaultTransportConfig(c.BaseURL)

	if c.TimeoutMS > 0 {
		config.Timeout = time.Duration(c.TimeoutMS) * time.Millisecond
	}
	if c.UserAgent != "" {
		config.UserAgent = c.UserAgent
	}
	if len(c.Headers) > 0 {
		config.Headers = c.Headers
	}

	switch {
	case c.Token != "" && c.TokenEnv != "":
		config.TokenProvider = auth.Chain(auth.EnvToken(c.TokenEnv), auth.StaticToken(c.Token))
	case c.TokenEnv != "":
		config.TokenProvider = auth.EnvToken(c.TokenEnv)
	case c.Token != "":
		config.TokenProvider = auth.StaticToken(c.Token)
	}

	if c.Retry.MaxAttempts != nil {
		config.Retry.MaxAttempts = *c.Retry.MaxAttempts
	}
	if c.Retry.MinDelayMS != nil {
		config.Retry.MinDelay = time.Duration(*c.Retry.MinDelayMS) * time.Millisecond
	}
	if c.Retry.Factor != nil {
		config.Retry.Factor = *c.Retry.Factor
	}
	config.Retry.MaxDelay = time.Duration(c.Retry.MaxDelayMS) * time.Millisecond

	if c.Features.Reliability != nil {
		config.Features.DisableReliability = !*c.Features.Reliability
	}
	if c.Features.Observability != nil {
		config.Features.EnableObservability = *c.Features.Observability
	}
	return config
}

// SubscriberConfig converts the [events] table
func (c *FileConfig) SubscriberConfig() (SubscriberConfig, error) {
	config := DefaultSubscriberConfig()
	if c.Events.Path != "" {
		config.Path = c.Events.Path
	}
	if c.Events.ReconnectDelayMS > 0 {
		config.ReconnectDelay = time.Duration(c.Events.ReconnectDelayMS) * time.Millisecond
	}
	if c.Events.Mode != "" {
		mode, err := ParseChannelMode(c.Events.Mode)
		if err != nil {
			return config, err
		}
		config.Mode = mode
	}
	return config, nil
}
