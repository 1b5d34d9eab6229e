// Package publish implements the pipeline stage that uploads staged media to
// the CDN and records playback locations.
package publish
