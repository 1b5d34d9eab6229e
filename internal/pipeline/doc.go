// Package pipeline orchestrates the ingestion lifecycle: it accepts
// submissions, claims pending records for its worker pool, runs the
// download, publish, and transcribe stages in order, and reclaims records
// abandoned by dead workers.
package pipeline
