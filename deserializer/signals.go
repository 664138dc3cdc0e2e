package deserializer

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for validation events.
var (
	SignalSchemaCompiled = capitan.NewSignal("deserializer.schema.compiled", "Schema compiled into its validation plan")
	SignalCleanStart     = capitan.NewSignal("deserializer.clean.start", "Validation of bound data beginning")
	SignalCleanComplete  = capitan.NewSignal("deserializer.clean.complete", "Validation of bound data finished")
)

// Keys for typed event data.
var (
	KeyFieldCount = capitan.NewIntKey("field_count")
	KeyErrorCount = capitan.NewIntKey("error_count")
	KeyDuration   = capitan.NewDurationKey("duration")
)

// emitSchemaCompiled emits an event when a schema compiles.
func emitSchemaCompiled(ctx context.Context, fieldCount int) {
	capitan.Emit(ctx, SignalSchemaCompiled,
		KeyFieldCount.Field(fieldCount),
	)
}

// emitCleanStart emits an event when validation begins.
func emitCleanStart(ctx context.Context, fieldCount int) {
	capitan.Emit(ctx, SignalCleanStart,
		KeyFieldCount.Field(fieldCount),
	)
}

// emitCleanComplete emits an event when validation finishes. Invalid
// data is an expected outcome, not an error, so the event always emits
// plainly with the recorded failure count.
func emitCleanComplete(ctx context.Context, fieldCount, errorCount int, duration time.Duration) {
	capitan.Emit(ctx, SignalCleanComplete,
		KeyFieldCount.Field(fieldCount),
		KeyErrorCount.Field(errorCount),
		KeyDuration.Field(duration),
	)
}
