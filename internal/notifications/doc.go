// Package notifications delivers pipeline events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Pipeline code depends only on the simple Service interface, so
// alternative transports slot in without touching stage handlers.
package notifications
