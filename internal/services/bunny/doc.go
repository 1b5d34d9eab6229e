// Package bunny publishes media files to a Bunny Stream video library and
// derives the CDN URLs used for playback.
package bunny
