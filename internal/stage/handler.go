package stage

import (
	"context"

	"reelingest/internal/records"
)

// Handler describes the contract the pipeline manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *records.Record) error
	Execute(context.Context, *records.Record) error
	HealthCheck(context.Context) Health
}
