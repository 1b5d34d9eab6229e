// Package download implements the pipeline stage that resolves source URLs
// and stages their media files locally.
package download
