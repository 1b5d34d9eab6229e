// Package transcribe implements the pipeline stage that enriches published
// records with transcripts and script components.
package transcribe
