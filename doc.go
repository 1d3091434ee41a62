// Package forge is the backend gateway of the Forge local development
// platform.
//
// The gateway owns the platform's dynamic configuration: a reverse-proxy
// routing table applied to nginx and a log-source registry applied to
// Promtail, both persisted to YAML files and pushed to the external
// processes via live reload. On top of that it aggregates health across
// the platform's services and proxies cache (Redis), database (MySQL)
// and log ingestion (Loki) operations for SDK clients.
//
// # Architecture
//
// Request flow for configuration mutations:
//
//	client -> gateway (validate) -> configstore (durable write)
//	       -> reload (regenerate artifact, signal process) -> response
//
// The store write always commits before the reload attempt and is never
// rolled back; a failed reload surfaces as a warning on a successful
// response and can be re-triggered through the explicit reload
// endpoints.
//
// Packages:
//
//   - configstore: durable name-keyed Route and LogSource storage
//   - reload: artifact generation and external process signaling
//   - health: probe table and aggregated health snapshots
//   - gateway: the HTTP API layer under /api/v1
//   - cache, db, observe, system: backing service clients
//   - metric: Prometheus instrumentation
//   - config: process configuration (defaults, YAML file, env)
//   - errors, pkg/retry: classified errors and backoff used throughout
package forge
