package store

import (
	"context"

	"github.com/google/uuid"
)

// CancellationToken pairs a context.Context carrying a caller-driven cancel
// signal with a stable id, so logs and metrics can correlate a cancelled
// query back to the request that triggered it.
type CancellationToken struct {
	ID     string
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCancellationToken derives a cancellable context from parent and tags
// it with a fresh id.
func NewCancellationToken(parent context.Context) *CancellationToken {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &CancellationToken{ID: uuid.NewString(), ctx: ctx, cancel: cancel}
}

// Context returns the token's context, suitable for RootQueryContext.
func (t *CancellationToken) Context() context.Context { return t.ctx }

// Cancel signals in-flight queries using this token to abandon work at
// their next cooperative check point.
func (t *CancellationToken) Cancel() { t.cancel() }
