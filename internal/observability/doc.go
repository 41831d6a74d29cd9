// Package observability keeps the sync journal: one JSON Lines (JSONL) entry
// per notable event of a tdi run, such as pulls started and completed,
// skipped comment fetches, entities created or rejected during a push, and
// failed validations. Every entry carries the id of the run that wrote it, so
// `tdi log` can show a single run or filter across runs.
package observability
