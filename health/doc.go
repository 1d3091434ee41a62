// Package health computes the aggregated health snapshot served by the
// gateway.
//
// The dependency set is a fixed configuration table, not a plugin system:
// each entry pairs a service name with a required flag and a probe
// capability. Required services (database, cache, reverse proxy) gate the
// snapshot's OK; optional observability services (grafana, prometheus,
// loki, tempo) are reported but never flip OK.
//
// Probes run concurrently with a short per-probe timeout on every
// Snapshot call. Snapshots are pure reads: nothing is persisted, and a
// fresh snapshot is computed per query. The "api" entry is always present
// and healthy because the process producing the snapshot is, by
// construction, alive.
package health
