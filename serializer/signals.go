package serializer

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for projection events.
var (
	SignalSchemaCompiled  = capitan.NewSignal("serializer.schema.compiled", "Schema compiled into its projection plan")
	SignalProjectStart    = capitan.NewSignal("serializer.project.start", "Projection of an instance beginning")
	SignalProjectComplete = capitan.NewSignal("serializer.project.complete", "Projection of an instance finished")
)

// Keys for typed event data.
var (
	KeyFieldCount = capitan.NewIntKey("field_count")
	KeyDuration   = capitan.NewDurationKey("duration")
	KeyError      = capitan.NewErrorKey("error")
)

// emitSchemaCompiled emits an event when a schema compiles.
func emitSchemaCompiled(ctx context.Context, fieldCount int) {
	capitan.Emit(ctx, SignalSchemaCompiled,
		KeyFieldCount.Field(fieldCount),
	)
}

// emitProjectStart emits an event when a projection begins.
func emitProjectStart(ctx context.Context, fieldCount int) {
	capitan.Emit(ctx, SignalProjectStart,
		KeyFieldCount.Field(fieldCount),
	)
}

// emitProjectComplete emits an event when a projection finishes.
func emitProjectComplete(ctx context.Context, fieldCount int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyFieldCount.Field(fieldCount),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalProjectComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalProjectComplete, fields...)
	}
}
