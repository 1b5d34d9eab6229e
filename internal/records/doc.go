// Package records persists ingestion jobs and their resulting video documents
// in SQLite. A row is both the job-status record the caller polls and the
// long-lived video entity: CDN fields fill in as stages complete so readers
// see a playable video before enrichment finishes.
package records
