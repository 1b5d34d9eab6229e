// Package daemon runs the long-lived ingestion service: it holds the
// single-instance lock, drives the pipeline manager, and serves the HTTP
// API used for submissions and job status queries.
package daemon
