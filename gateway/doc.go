// Package gateway is the HTTP layer of the Forge gateway.
//
// It composes the configuration stores, the reload coordinator, the
// health aggregator and the passthrough backends into the REST surface
// under /api/v1. The package owns request-level concerns only:
// validation, payload limits, status-code mapping, response envelopes,
// CORS, request IDs, metrics and request logging. All domain state lives
// behind its collaborators.
//
// Mutation semantics follow a two-phase policy: the store write commits
// first and is never rolled back; the subsequent reload of the external
// process (reverse proxy or log shipper) is best-effort, with failures
// reported as a warning field on an otherwise successful response. An
// explicit reload endpoint per kind re-triggers propagation once the
// external process recovers.
package gateway
