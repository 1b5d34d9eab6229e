// Package apify is a minimal client for the actor-run scraping API used to
// resolve source-platform video pages into structured metadata.
package apify
