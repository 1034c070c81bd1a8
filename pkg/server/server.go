package server

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/treepatch/internal/errors"
	"github.com/vango-dev/treepatch/pkg/applier"
	"github.com/vango-dev/treepatch/pkg/dom"
	"github.com/vango-dev/treepatch/pkg/middleware"
	"github.com/vango-dev/treepatch/pkg/protocol"
	"github.com/vango-dev/treepatch/pkg/render"
	"github.com/vango-dev/treepatch/pkg/snapshot"
)

// Server is the HTTP/WebSocket host for one live tree.
type Server struct {
	config *ServerConfig

	// mu serializes batches, restores and renders.
	mu       sync.Mutex
	root     *dom.Element
	base     *applier.TreeApplier
	applier  applier.Applier
	seq      uint64
	renderer *render.Renderer

	store    snapshot.Store
	registry *prometheus.Registry
	tracer   trace.Tracer
	upgrader websocket.Upgrader
	router   chi.Router

	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server with the given configuration.
func New(config *ServerConfig) *Server {
	config = config.withDefaults()
	logger := slog.Default().With("component", "server")

	root := dom.NewElement(config.RootTag)
	root.SetID("root")

	opts := []applier.Option{applier.WithLogger(logger.With("component", "applier"))}
	if config.StrictDescent {
		opts = append(opts, applier.WithStrictDescent())
	}
	base := applier.New(root, opts...)

	s := &Server{
		config:   config,
		root:     root,
		base:     base,
		applier:  base,
		renderer: render.NewRenderer(config.Render),
		store:    config.Store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger: logger,
	}

	if s.store == nil {
		s.store = snapshot.NewMemoryStore()
	}

	if config.EnableMetrics {
		s.registry = config.Registry
		if s.registry == nil {
			s.registry = prometheus.NewRegistry()
		}
		s.applier = middleware.Instrument(base,
			middleware.WithRegistry(s.registry),
			middleware.WithNamespace(config.MetricsNamespace),
		)
	}

	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	s.tracer = tp.Tracer("treepatch/server")

	s.router = s.routes()
	return s
}

// Handler returns an http.Handler for mounting in external routers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Registry returns the metrics registry, or nil when metrics are disabled.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// SetLogger sets the server logger.
func (s *Server) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Apply replays batch against the tree with the cursor starting at the
// root. Operations before a failing one stay applied. On success the
// server sequence number advances to batch.Seq when that is non-zero.
func (s *Server) Apply(ctx context.Context, batch *protocol.Batch) error {
	ctx, span := s.tracer.Start(ctx, "treepatch.batch",
		trace.WithAttributes(
			attribute.Int64("treepatch.seq", int64(batch.Seq)),
			attribute.Int("treepatch.ops", len(batch.Ops)),
		),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.base.Reset()
	a := middleware.Trace(ctx, s.applier, middleware.WithTracerProvider(s.tracerProvider()))
	err := batch.ApplyTo(a)
	s.base.Reset()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("batch rejected", "seq", batch.Seq, "ops", len(batch.Ops), "error", err)
		return err
	}

	if batch.Seq != 0 {
		s.seq = batch.Seq
	} else {
		s.seq++
	}
	s.logger.Debug("batch applied", "seq", s.seq, "ops", len(batch.Ops))
	return nil
}

func (s *Server) tracerProvider() trace.TracerProvider {
	if s.config.TracerProvider != nil {
		return s.config.TracerProvider
	}
	return otel.GetTracerProvider()
}

// Seq returns the sequence number of the last applied batch.
func (s *Server) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Markup serializes the tree.
func (s *Server) Markup() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderer.RenderToString(s.root)
}

// Snapshot stores the current tree under key.
func (s *Server) Snapshot(ctx context.Context, key string) (*snapshot.Snapshot, error) {
	s.mu.Lock()
	var buf bytes.Buffer
	err := s.renderer.RenderToWriter(&buf, s.root)
	seq := s.seq
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	snap := &snapshot.Snapshot{Key: key, Markup: buf.Bytes(), Seq: seq}
	if err := s.store.Put(ctx, snap); err != nil {
		return nil, err
	}
	s.logger.Info("snapshot stored", "key", key, "seq", seq, "bytes", buf.Len())
	return snap, nil
}

// Restore replaces the tree with the snapshot stored under key. The stored
// markup must have a single root element; its attributes are ignored and
// its children become the children of the live root.
func (s *Server) Restore(ctx context.Context, key string) error {
	snap, err := s.store.Get(ctx, key)
	if err != nil {
		return err
	}
	nodes, err := dom.Parse(bytes.NewReader(snap.Markup))
	if err != nil {
		return err
	}
	if len(nodes) != 1 {
		return errors.New(errors.CodeMalformed).WithOp("restore").
			WithDetail("snapshot must contain exactly one root element")
	}
	stored, ok := nodes[0].(*dom.Element)
	if !ok {
		return errors.New(errors.CodeMalformed).WithOp("restore").
			WithDetail("snapshot root is a text node")
	}

	s.replace(stored.Children(), snap.Seq)
	s.logger.Info("snapshot restored", "key", key, "seq", snap.Seq)
	return nil
}

// Load replaces the children of the live root with nodes and resets the
// sequence number.
func (s *Server) Load(nodes ...dom.Node) error {
	for _, n := range nodes {
		if n == nil {
			return errors.New(errors.CodeNilNode).WithOp("load")
		}
	}
	s.replace(nodes, 0)
	return nil
}

func (s *Server) replace(children []dom.Node, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base.Reset()
	s.root.Clear()
	s.root.Append(children...)
	s.seq = seq
}

// Run starts the HTTP server and blocks until it fails or the process
// receives SIGINT or SIGTERM.
func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-shutdown:
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	s.logger.Info("server shutdown complete")
	return nil
}
