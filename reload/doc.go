// Package reload regenerates external configuration artifacts (nginx
// location blocks, Promtail scrape configs) from the gateway's config
// store and signals the owning process to apply them.
//
// # Failure policy
//
// The coordinator runs strictly after the durable store write. Rendering,
// artifact-write, and signal failures are all downgraded to warnings in
// the returned Outcome - the store mutation is never rolled back because
// the proxy or log shipper was unreachable. A manual reload endpoint
// re-triggers propagation once the external process recovers.
//
// # Regeneration strategy
//
// Every apply renders the artifact from the complete current record set.
// There is no incremental diffing, so the artifact cannot drift from the
// store's truth.
//
// Reload triggers for the same kind are serialized by a per-kind mutex,
// and run on a context detached from the inbound request so a client
// disconnect cannot cancel propagation of a committed write.
package reload
