package obs

import (
	"context"
	"log"
	"time"
)

type ctxKey string

const (
	RequestIDKey ctxKey = "req_id"
	BatchIDKey   ctxKey = "batch_id"
)

// WithBatch tags a context with the batch an operation runs for, so timing
// lines from the engine can be correlated with a monitored batch.
func WithBatch(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, BatchIDKey, batchID)
}

func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID, _ := ctx.Value(RequestIDKey).(string)
	batchID, _ := ctx.Value(BatchIDKey).(string)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Printf("req_id=%s batch=%s op=%s dur=%dms err=%v", reqID, batchID, name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("req_id=%s batch=%s op=%s dur=%dms", reqID, batchID, name, dur.Milliseconds())
	}
}
