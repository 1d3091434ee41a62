// Package configstore provides durable, name-keyed storage for the
// gateway's dynamic configuration records: reverse-proxy routes and log
// sources.
//
// # Semantics
//
// Records are keyed by name. Upsert is insert-or-replace: a second upsert
// with the same name fully replaces the prior record, it is never a
// field-level merge. Delete of an unknown name returns a not-found error.
// List returns a sorted copy, so iteration order is deterministic.
//
// # Durability and consistency
//
// Every mutation persists the complete record set to a YAML file before
// returning. If the write fails, the in-memory state is rolled back and
// the mutation reports failure - callers never observe a record that is
// not also on disk.
//
// All mutations on a store are serialized by a single mutex. Concurrent
// upserts and deletes on different names are unordered relative to each
// other, but each individual mutation is atomic.
//
// # Live reload
//
// Watch observes the backing file with fsnotify so that hand edits to
// routes.yaml or sources.yaml are picked up without restarting the
// gateway. The store's own writes are recognized by content comparison
// and do not re-trigger the change callback.
package configstore
