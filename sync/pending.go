// ABOUTME: PendingWrite lets callers observe when a queued write is persisted
// ABOUTME: Resolved once with nil, ErrRetriesExhausted or ErrQueueCleared
package sync

import (
	"context"
	gosync "sync"
)

// PendingWrite tracks the outcome of one scheduled record write.
type PendingWrite struct {
	id   string
	done chan struct{}
	once gosync.Once
	err  error
}

func newPendingWrite(id string) *PendingWrite {
	return &PendingWrite{id: id, done: make(chan struct{})}
}

// ID returns the record id the write belongs to.
func (p *PendingWrite) ID() string {
	return p.id
}

// Done is closed once the write has been resolved.
func (p *PendingWrite) Done() <-chan struct{} {
	return p.done
}

// Err returns the outcome, or nil while the write is still pending.
func (p *PendingWrite) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the write resolves or ctx is done.
func (p *PendingWrite) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *PendingWrite) resolve(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}
