// Package report records the outcome of sync runs.
//
// A Recorder collects per-entity results while the sync worker pool runs,
// then the finalized report is persisted to two optional backends:
//   - MySQL (sync_runs / sync_run_entries tables) for queryable history.
//   - Object storage, as a JSON document under reports/<run-id>.json.
//
// Persistence is best effort; a failing backend logs a warning and never
// fails the sync run itself.
//
// # HTTP Endpoints
//
//   - GET /runs : list recent runs with outcome counters.
//   - GET /runs/:id : one run with its per-entity entries.
//   - GET /runs/:id/archive : the JSON document as uploaded to storage.
package report
