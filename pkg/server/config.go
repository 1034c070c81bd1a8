package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/treepatch/pkg/render"
	"github.com/vango-dev/treepatch/pkg/snapshot"
)

// ServerConfig configures the live host.
type ServerConfig struct {
	// Address is the listen address for Run.
	Address string

	// PathPrefix mounts every route under a prefix. Default: "/".
	PathPrefix string

	// Title is the document title served at the root route.
	Title string

	// RootTag is the tag of the root element. Default: "div".
	RootTag string

	// MaxBodyBytes bounds request bodies and WebSocket messages.
	MaxBodyBytes int64

	// Render configures serialization of responses.
	Render render.RendererConfig

	// StrictDescent rejects Down into text nodes immediately.
	StrictDescent bool

	// Store holds snapshots. Default: an in-memory store.
	Store snapshot.Store

	// EnableMetrics instruments the applier and serves /metrics.
	EnableMetrics bool

	// MetricsNamespace is the Prometheus namespace.
	MetricsNamespace string

	// Registry receives the metrics. Default: a new registry.
	Registry *prometheus.Registry

	// TracerProvider supplies tracers. Default: the global provider.
	TracerProvider trace.TracerProvider

	// ReadBufferSize and WriteBufferSize size the WebSocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates the origin of WebSocket upgrades.
	CheckOrigin func(r *http.Request) bool

	// WriteTimeout bounds each WebSocket write.
	WriteTimeout time.Duration

	// ReadHeaderTimeout is passed to the http.Server built by Run.
	ReadHeaderTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:           ":8080",
		PathPrefix:        "/",
		Title:             "treepatch",
		RootTag:           "div",
		MaxBodyBytes:      1 << 20,
		EnableMetrics:     true,
		MetricsNamespace:  "treepatch",
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		CheckOrigin:       SameOriginCheck,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   30 * time.Second,
	}
}

// withDefaults fills unset fields from DefaultServerConfig.
func (c *ServerConfig) withDefaults() *ServerConfig {
	d := DefaultServerConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.PathPrefix == "" {
		out.PathPrefix = d.PathPrefix
	}
	if out.Title == "" {
		out.Title = d.Title
	}
	if out.RootTag == "" {
		out.RootTag = d.RootTag
	}
	if out.MaxBodyBytes == 0 {
		out.MaxBodyBytes = d.MaxBodyBytes
	}
	if out.MetricsNamespace == "" {
		out.MetricsNamespace = d.MetricsNamespace
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = d.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = d.WriteBufferSize
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = d.CheckOrigin
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	return &out
}

// SameOriginCheck validates that the WebSocket request origin matches the host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// No Origin header (e.g., same-origin request or curl)
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := r.Host
	if host == "" {
		return false
	}
	return originURL.Host == host
}
