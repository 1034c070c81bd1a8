package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/treepatch/internal/errors"
	"github.com/vango-dev/treepatch/pkg/protocol"
	"github.com/vango-dev/treepatch/pkg/render"
)

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handleDocument)
	r.Get("/tree", s.handleTree)
	r.Post("/patches", s.handlePatches)
	r.Get("/ws", s.handleWebSocket)

	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", s.handleListSnapshots)
		r.Post("/{key}", s.handlePutSnapshot)
		r.Get("/{key}", s.handleGetSnapshot)
		r.Post("/{key}/restore", s.handleRestoreSnapshot)
	})

	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	prefix := strings.TrimSuffix(s.config.PathPrefix, "/")
	if prefix == "" {
		return r
	}
	outer := chi.NewRouter()
	outer.Mount(prefix, r)
	return outer
}

// requestLogger logs each request through slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.LogAttrs(r.Context(), slog.LevelDebug, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	s.mu.Lock()
	defer s.mu.Unlock()

	sr := render.NewStreamingRenderer(w, s.config.Render)
	err := sr.RenderDocument(render.DocumentData{
		Title: s.config.Title,
		Body:  s.root,
		Meta:  []render.MetaTag{{Name: "viewport", Content: "width=device-width, initial-scale=1"}},
	})
	if err != nil {
		s.logger.Error("document render failed", "error", err)
	}
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	markup, err := s.Markup()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeMarkup(w, http.StatusOK, markup)
}

// handlePatches applies a batch. Bodies with a YAML content type are
// read as scripts, everything else as a binary batch.
func (s *Server) handlePatches(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge, errors.New(errors.CodeFrameTooLarge).Wrap(err))
			return
		}
		s.writeError(w, http.StatusBadRequest, errors.New(errors.CodeMalformed).Wrap(err))
		return
	}

	var batch *protocol.Batch
	if isYAML(r.Header.Get("Content-Type")) {
		batch, err = protocol.ParseScript(body)
	} else {
		batch, err = protocol.DecodeBatch(body)
	}
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.Apply(r.Context(), batch); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.handleTree(w, r)
}

func isYAML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return true
	}
	return false
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.List(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

func (s *Server) handlePutSnapshot(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	snap, err := s.Snapshot(r.Context(), key)
	if err != nil {
		s.writeError(w, storageStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"key":   snap.Key,
		"seq":   snap.Seq,
		"bytes": len(snap.Markup),
	})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, storageStatus(err), err)
		return
	}
	s.writeMarkup(w, http.StatusOK, string(snap.Markup))
}

func (s *Server) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.Restore(r.Context(), chi.URLParam(r, "key")); err != nil {
		s.writeError(w, storageStatus(err), err)
		return
	}
	s.handleTree(w, r)
}

func storageStatus(err error) int {
	var te *errors.TreeError
	if !stderrors.As(err, &te) {
		return http.StatusInternalServerError
	}
	switch te.Code {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeStorage:
		if te.Wrapped == nil {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	case errors.CodeMalformed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeMarkup(w http.ResponseWriter, status int, markup string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, markup)
}

// errorResponse is the JSON body of failed requests.
type errorResponse struct {
	Code    string `json:"code,omitempty"`
	Op      string `json:"op,omitempty"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Message: err.Error()}
	var te *errors.TreeError
	if stderrors.As(err, &te) {
		resp.Code = te.Code
		resp.Op = te.Op
		resp.Detail = te.Detail
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
