// Package snapshot stores serialized trees under string keys.
//
// A snapshot is the markup of a tree at a point in time together with the
// sequence number of the last batch applied to it. Hosts write snapshots
// on request and can restore a tree from one by parsing its markup.
//
// Two backends are provided: MemoryStore for tests and single-process
// hosts, and S3Store for any S3-compatible object store.
package snapshot
