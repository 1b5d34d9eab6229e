// Package scraper resolves platform post URLs into directly fetchable media
// URLs and metadata by running hosted scraping actors.
package scraper
