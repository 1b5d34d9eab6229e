// Package dedupe guards against duplicate in-flight submissions of the same
// source URL using redis reservations.
package dedupe
