// Package services defines the shared error taxonomy and context annotations
// used by the pipeline stages and the external service clients beneath them.
//
// Stage failures are wrapped with sentinel markers so the pipeline manager can
// classify them without string matching: pre-publish markers abort a job, while
// thumbnail and transcription markers only degrade the persisted record.
package services
