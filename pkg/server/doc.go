// Package server hosts a live tree over HTTP and WebSocket.
//
// The server owns one tree and one applier. Clients submit batches of
// applier operations, either as binary batches or YAML scripts over HTTP,
// or as batch frames over a WebSocket, and receive the serialized tree in
// response. Batches are applied one at a time; each starts with the cursor
// at the root.
//
// Routes (relative to the configured path prefix):
//
//	GET  /                         full HTML document
//	GET  /tree                     tree markup
//	POST /patches                  apply a batch, respond with markup
//	GET  /ws                       WebSocket batch channel
//	GET  /snapshots                list snapshot keys
//	POST /snapshots/{key}          store the current tree
//	GET  /snapshots/{key}          fetch stored markup
//	POST /snapshots/{key}/restore  replace the tree with a snapshot
//	GET  /metrics                  Prometheus metrics
//
// The server integrates with chi, and Handler can be mounted in any router:
//
//	r := chi.NewRouter()
//	r.Mount("/live", srv.Handler())
package server
