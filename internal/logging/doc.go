// Package logging wraps log/slog construction and the structured attribute
// conventions shared across the pipeline: component tagging, record and stage
// context propagation, and multi-destination output.
package logging
