package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/treepatch/internal/errors"
	"github.com/vango-dev/treepatch/pkg/protocol"
)

// handleWebSocket upgrades the connection and serves batch frames until
// the client disconnects.
//
// Each binary message carries one frame. A batch frame is answered with a
// render frame when it sets FlagWantRender and with an ack frame holding
// the sequence number otherwise. Failures are answered with an error frame
// whose payload is the error text; the connection stays open.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(s.config.MaxBodyBytes)
	logger := s.logger.With("remote", r.RemoteAddr)
	logger.Debug("websocket connected")

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				logger.Error("read error", "error", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			s.writeFrame(conn, errorFrame(errors.New(errors.CodeMalformed).WithDetail("expected a binary message")))
			continue
		}

		reply := s.handleFrame(r, msg)
		if err := s.writeFrame(conn, reply); err != nil {
			logger.Error("write error", "error", err)
			return
		}
	}
}

func (s *Server) handleFrame(r *http.Request, msg []byte) *protocol.Frame {
	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		return errorFrame(errors.New(errors.CodeMalformed).Wrap(err))
	}
	if frame.Type != protocol.FrameBatch {
		return errorFrame(errors.New(errors.CodeMalformed).
			WithDetail("unexpected frame type " + frame.Type.String()))
	}

	batch, err := protocol.DecodeBatch(frame.Payload)
	if err != nil {
		return errorFrame(err)
	}
	if err := s.Apply(r.Context(), batch); err != nil {
		return errorFrame(err)
	}

	if !frame.Flags.Has(protocol.FlagWantRender) {
		e := protocol.NewEncoder()
		e.WriteUvarint(s.Seq())
		return protocol.NewFrame(protocol.FrameAck, e.Bytes())
	}

	markup, err := s.Markup()
	if err != nil {
		return errorFrame(err)
	}
	if len(markup) > protocol.MaxPayloadSize {
		return errorFrame(errors.New(errors.CodeFrameTooLarge).
			WithDetail("rendered tree does not fit in one frame; fetch GET /tree instead"))
	}
	return protocol.NewFrame(protocol.FrameRender, []byte(markup))
}

func errorFrame(err error) *protocol.Frame {
	msg := err.Error()
	if len(msg) > protocol.MaxPayloadSize {
		msg = msg[:protocol.MaxPayloadSize]
	}
	return protocol.NewFrame(protocol.FrameError, []byte(msg))
}

func (s *Server) writeFrame(conn *websocket.Conn, f *protocol.Frame) error {
	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	return protocol.WriteFrame(wsWriter{conn}, f)
}

// wsWriter sends each Write as one binary message.
type wsWriter struct {
	conn *websocket.Conn
}

func (w wsWriter) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}
