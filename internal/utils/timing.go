package utils

import (
	"context"
	"log"
	"time"
)

type ctxKey string

// RequestIDKey stores the request id on a context.Context.
const RequestIDKey ctxKey = "request_id"

// WithRequestID attaches the request id for downstream logging.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestIDFrom returns the request id stored by WithRequestID.
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time logs the duration of an operation; call the result with &err in a defer.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()
	reqID := RequestIDFrom(ctx)

	return func(errp *error) {
		dur := time.Since(start)
		if errp != nil && *errp != nil {
			log.Printf("[STORE] request_id=%s op=%s dur=%dms err=%v", reqID, name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("[STORE] request_id=%s op=%s dur=%dms", reqID, name, dur.Milliseconds())
	}
}
