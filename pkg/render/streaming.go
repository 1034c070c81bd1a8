package render

import (
	"io"
	"net/http"
)

// StreamingRenderer wraps Renderer with chunked output support.
// It flushes the head before rendering the body.
type StreamingRenderer struct {
	*Renderer
	flusher http.Flusher
	w       io.Writer
}

// NewStreamingRenderer creates a streaming renderer that writes to w.
// If w implements http.Flusher, content is flushed after each section.
func NewStreamingRenderer(w io.Writer, config RendererConfig) *StreamingRenderer {
	flusher, _ := w.(http.Flusher)
	return &StreamingRenderer{
		Renderer: NewRenderer(config),
		flusher:  flusher,
		w:        w,
	}
}

// RenderDocument renders a complete HTML document with incremental flushing.
func (s *StreamingRenderer) RenderDocument(doc DocumentData) error {
	if err := s.renderDocumentOpen(s.w, doc); err != nil {
		return err
	}
	if err := s.renderHead(s.w, doc); err != nil {
		return err
	}

	s.flush()

	if err := s.renderBody(s.w, doc); err != nil {
		return err
	}

	s.flush()
	return nil
}

// flush flushes the writer if it supports flushing.
func (s *StreamingRenderer) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

// FlushableWriter wraps an io.Writer with a flush counter.
// It is useful for testing streaming without an http.ResponseWriter.
type FlushableWriter struct {
	io.Writer
	FlushCount int
}

// Flush implements http.Flusher.
func (w *FlushableWriter) Flush() {
	w.FlushCount++
}
