// Package apiclient is the HTTP client for the daemon API, used by the
// CLI to submit videos and query job state.
package apiclient
