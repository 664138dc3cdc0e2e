package view

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for request handling events.
var (
	SignalRequestHandled = capitan.NewSignal("view.request.handled", "Wrapped view answered a request")
)

// Keys for typed event data.
var (
	KeyMethod   = capitan.NewStringKey("method")
	KeyPath     = capitan.NewStringKey("path")
	KeyStatus   = capitan.NewIntKey("status")
	KeyDuration = capitan.NewDurationKey("duration")
)

// emitRequestHandled emits an event once a response has been written.
// Failure responses are regular outcomes here; their detail goes to the
// view's logger, not the signal.
func emitRequestHandled(ctx context.Context, method, path string, status int, duration time.Duration) {
	capitan.Emit(ctx, SignalRequestHandled,
		KeyMethod.Field(method),
		KeyPath.Field(path),
		KeyStatus.Field(status),
		KeyDuration.Field(duration),
	)
}
