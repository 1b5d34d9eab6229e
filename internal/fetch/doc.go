// Package fetch downloads resolved media and thumbnails into local staging.
package fetch
