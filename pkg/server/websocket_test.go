package server

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/treepatch/pkg/dom"
	"github.com/vango-dev/treepatch/pkg/protocol"
)

func dial(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, f *protocol.Frame) *protocol.Frame {
	t.Helper()
	if err := conn.WriteMessage(websocket.BinaryMessage, f.Encode()); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	reply, err := protocol.DecodeFrame(msg)
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	return reply
}

func TestWebSocketBatches(t *testing.T) {
	conn := dial(t, newTestServer(t))

	batch := &protocol.Batch{Seq: 5, Ops: []protocol.Op{protocol.InsertBottomUp(0, dom.NewText("hi"))}}
	f := protocol.NewFrame(protocol.FrameBatch, protocol.EncodeBatch(batch))
	f.Flags = protocol.FlagWantRender

	reply := roundTrip(t, conn, f)
	if reply.Type != protocol.FrameRender {
		t.Fatalf("reply type = %v payload = %q", reply.Type, reply.Payload)
	}
	if string(reply.Payload) != `<div id="root">hi</div>` {
		t.Errorf("render = %s", reply.Payload)
	}

	batch = &protocol.Batch{Seq: 6, Ops: []protocol.Op{protocol.Remove(0, 1)}}
	reply = roundTrip(t, conn, protocol.NewFrame(protocol.FrameBatch, protocol.EncodeBatch(batch)))
	if reply.Type != protocol.FrameAck {
		t.Fatalf("reply type = %v, want Ack", reply.Type)
	}
	seq, err := protocol.NewDecoder(reply.Payload).ReadUvarint()
	if err != nil || seq != 6 {
		t.Errorf("ack seq = %d, %v", seq, err)
	}
}

func TestWebSocketErrors(t *testing.T) {
	conn := dial(t, newTestServer(t))

	batch := &protocol.Batch{Ops: []protocol.Op{protocol.Up()}}
	reply := roundTrip(t, conn, protocol.NewFrame(protocol.FrameBatch, protocol.EncodeBatch(batch)))
	if reply.Type != protocol.FrameError || !strings.Contains(string(reply.Payload), "E103") {
		t.Errorf("reply = %v %q", reply.Type, reply.Payload)
	}

	reply = roundTrip(t, conn, protocol.NewFrame(protocol.FrameRender, nil))
	if reply.Type != protocol.FrameError {
		t.Errorf("unexpected frame reply = %v", reply.Type)
	}

	// The connection survives errors.
	batch = &protocol.Batch{Ops: []protocol.Op{protocol.Clear()}}
	reply = roundTrip(t, conn, protocol.NewFrame(protocol.FrameBatch, protocol.EncodeBatch(batch)))
	if reply.Type != protocol.FrameAck {
		t.Errorf("reply after errors = %v", reply.Type)
	}
}
