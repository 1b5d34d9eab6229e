// Package preflight provides readiness checks for external services
// and filesystem paths that the ingestion daemon depends on.
//
// These checks run in two contexts:
//   - The pipeline manager calls RunAll at startup. If any check fails,
//     the daemon refuses to accept work rather than failing every job.
//   - The CLI "reelingest status" command uses individual check functions
//     to display service health.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
