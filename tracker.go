// Package tracker is the Go SDK for the tracker HTTP API.
package tracker

import (
	"github.com/ajitpratap0/tracker-sdk-go/pkg/client"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/errors"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/protocol"
	"github.com/ajitpratap0/tracker-sdk-go/pkg/transport"
)

// Version represents the current version of the SDK
const Version = "0.3.0"

// These exports provide direct access to the core SDK components
var (
	// NewClient creates a new tracker client
	NewClient = client.New

	// NewTransport creates a new transport from a TransportConfig
	NewTransport = transport.NewTransport

	// NewSubscriber creates an event subscriber on a transport
	NewSubscriber = transport.NewSubscriber

	// NewEventRouter creates an empty event router
	NewEventRouter = transport.NewEventRouter

	// DefaultTransportConfig returns the default transport configuration
	DefaultTransportConfig = transport.DefaultTransportConfig

	// LoadConfigFile reads a TOML configuration file
	LoadConfigFile = transport.LoadConfigFile
)

// Event types
const (
	EventConnected     = protocol.EventConnected
	EventHeartbeat     = protocol.EventHeartbeat
	EventEntityUpdated = protocol.EventEntityUpdated
)

// Channel modes
const (
	ModeAuto   = transport.ModeAuto
	ModeNative = transport.ModeNative
	ModeManual = transport.ModeManual
)

// Client options
var (
	WithToken            = client.WithToken
	WithTokenProvider    = client.WithTokenProvider
	WithHTTPClient       = client.WithHTTPClient
	WithTimeout          = client.WithTimeout
	WithRetryPolicy      = client.WithRetryPolicy
	WithHeader           = client.WithHeader
	WithUserAgent        = client.WithUserAgent
	WithLogger           = client.WithLogger
	WithMetrics          = client.WithMetrics
	WithTracing          = client.WithTracing
	WithFeatures         = client.WithFeatures
	WithSubscriberConfig = client.WithSubscriberConfig
)

// Error helpers
var (
	AsAPIError = errors.AsAPIError
	IsCode     = errors.IsCode
	StatusOf   = errors.StatusOf
)
