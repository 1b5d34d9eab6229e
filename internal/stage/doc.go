// Package stage defines the handler contract shared by the pipeline stages.
package stage
