// ABOUTME: Coalescing, retrying write queue that persists records one row at a time
// ABOUTME: Drains periodically, immediately for significant edits, and on demand
package sync

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/harperreed/notaires/models"
)

const failureHistoryLimit = 50

// RecordWriter persists a single record.
type RecordWriter interface {
	WriteRecord(ctx context.Context, rec models.Record) error
}

// RecordWriterFunc adapts a function to RecordWriter.
type RecordWriterFunc func(ctx context.Context, rec models.Record) error

func (f RecordWriterFunc) WriteRecord(ctx context.Context, rec models.Record) error {
	return f(ctx, rec)
}

// QueueConfig holds write queue settings.
type QueueConfig struct {
	Interval    time.Duration
	MaxAttempts int
	Logger      *log.Logger
	Now         func() time.Time
}

// DefaultQueueConfig returns the default queue configuration.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		Interval:    5 * time.Second,
		MaxAttempts: 3,
		Logger:      log.New(os.Stderr, "[queue] ", log.LstdFlags),
		Now:         time.Now,
	}
}

type queueEntry struct {
	record     models.Record
	enqueuedAt time.Time
	attempts   int
	seq        uint64
	order      uint64
	waiters    []*PendingWrite
}

// EntryStatus describes one pending entry.
type EntryStatus struct {
	ID         string    `json:"id"`
	Attempts   int       `json:"attempts"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// FailedWrite records an entry dropped after exhausting its retries.
type FailedWrite struct {
	ID        string    `json:"id"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error"`
	FailedAt  time.Time `json:"failed_at"`
}

// QueueStatus is a point-in-time view of the queue.
type QueueStatus struct {
	Pending  int           `json:"pending"`
	Draining bool          `json:"draining"`
	Entries  []EntryStatus `json:"entries"`
	Failed   []FailedWrite `json:"failed"`
}

// DrainResult summarises one drain pass.
type DrainResult struct {
	Attempted int
	Succeeded int
	Failed    int
	Dropped   int
}

// WriteQueue holds at most one pending write per record id.
type WriteQueue struct {
	writer RecordWriter
	cfg    QueueConfig

	mu      gosync.Mutex
	entries map[string]*queueEntry
	seq     uint64
	failed  []FailedWrite
	cancel  context.CancelFunc

	drainMu  gosync.Mutex
	draining atomic.Bool
	wg       gosync.WaitGroup
}

// NewWriteQueue creates a queue that persists through writer.
func NewWriteQueue(writer RecordWriter, cfg QueueConfig) *WriteQueue {
	def := DefaultQueueConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	return &WriteQueue{
		writer:  writer,
		cfg:     cfg,
		entries: make(map[string]*queueEntry),
	}
}

// Schedule enqueues rec, replacing any pending payload for the same id while
// keeping its attempt count. Significant edits trigger an immediate drain.
func (q *WriteQueue) Schedule(ctx context.Context, rec models.Record) (*PendingWrite, error) {
	if !models.IsValidRecord(&rec) {
		return nil, fmt.Errorf("%w: id and name are required", ErrInvalidPayload)
	}

	now := q.cfg.Now()
	rec = rec.Clone()
	rec.ModifiedAt = now
	pw := newPendingWrite(rec.ID)

	q.mu.Lock()
	q.seq++
	if e, ok := q.entries[rec.ID]; ok {
		e.record = rec
		e.enqueuedAt = now
		e.seq = q.seq
		e.waiters = append(e.waiters, pw)
	} else {
		q.entries[rec.ID] = &queueEntry{
			record:     rec,
			enqueuedAt: now,
			seq:        q.seq,
			order:      q.seq,
			waiters:    []*PendingWrite{pw},
		}
	}
	q.mu.Unlock()

	if isImmediate(&rec) {
		q.Drain(ctx)
	}

	return pw, nil
}

// isImmediate reports whether an edit is significant enough to persist right away.
func isImmediate(rec *models.Record) bool {
	return (rec.Status != "" && rec.Status != models.StatusUndefined) ||
		len(rec.Contacts) > 0 ||
		rec.Email != "" ||
		rec.HasCoordinates()
}

// Drain runs one pass over the queue unless another pass is in flight, in
// which case it returns immediately with ran == false.
func (q *WriteQueue) Drain(ctx context.Context) (res DrainResult, ran bool) {
	if !q.drainMu.TryLock() {
		return DrainResult{}, false
	}
	defer q.drainMu.Unlock()
	return q.drainPass(ctx), true
}

// ForceDrain waits for any in-flight pass and then runs its own.
func (q *WriteQueue) ForceDrain(ctx context.Context) DrainResult {
	q.drainMu.Lock()
	defer q.drainMu.Unlock()
	return q.drainPass(ctx)
}

type drainItem struct {
	id      string
	entry   *queueEntry
	record  models.Record
	seq     uint64
	waiters int
}

func (q *WriteQueue) drainPass(ctx context.Context) DrainResult {
	q.draining.Store(true)
	defer q.draining.Store(false)

	var res DrainResult
	for _, item := range q.snapshot() {
		if ctx.Err() != nil {
			break
		}
		res.Attempted++
		err := q.writer.WriteRecord(ctx, item.record)
		q.complete(item, err, &res)
	}
	return res
}

func (q *WriteQueue) snapshot() []drainItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := q.sortedLocked()
	items := make([]drainItem, len(entries))
	for i, e := range entries {
		items[i] = drainItem{
			id:      e.record.ID,
			entry:   e,
			record:  e.record.Clone(),
			seq:     e.seq,
			waiters: len(e.waiters),
		}
	}
	return items
}

func (q *WriteQueue) sortedLocked() []*queueEntry {
	entries := make([]*queueEntry, 0, len(q.entries))
	for _, e := range q.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].order < entries[j].order })
	return entries
}

// outcome is what complete decided under the lock.
type outcome struct {
	resolved []*PendingWrite
	err      error
	attempts int
	dropped  bool
}

func (q *WriteQueue) complete(item drainItem, err error, res *DrainResult) {
	out, live := q.settle(item, err)
	if !live {
		return
	}

	switch {
	case err == nil:
		res.Succeeded++
	case out.dropped:
		res.Dropped++
		q.cfg.Logger.Printf("dropping write for %s after %d attempts: %v", item.id, out.attempts, err)
	default:
		res.Failed++
		q.cfg.Logger.Printf("write for %s failed (attempt %d/%d): %v", item.id, out.attempts, q.cfg.MaxAttempts, err)
	}
	for _, pw := range out.resolved {
		pw.resolve(out.err)
	}
}

// settle applies a write result to the entry it was taken from. It reports
// false when that entry was cleared mid-flight, including when the id has
// since been scheduled again as a fresh entry.
func (q *WriteQueue) settle(item drainItem, err error) (outcome, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[item.id]
	if !ok || e != item.entry {
		return outcome{}, false
	}

	if err == nil {
		if e.seq == item.seq {
			delete(q.entries, item.id)
			return outcome{resolved: e.waiters}, true
		}
		// A newer payload arrived mid-flight; it stays queued.
		n := min(item.waiters, len(e.waiters))
		resolved := e.waiters[:n:n]
		e.waiters = append([]*PendingWrite(nil), e.waiters[n:]...)
		return outcome{resolved: resolved}, true
	}

	e.attempts++
	if e.attempts < q.cfg.MaxAttempts {
		return outcome{attempts: e.attempts}, true
	}

	delete(q.entries, item.id)
	q.failed = append(q.failed, FailedWrite{
		ID:        item.id,
		Attempts:  e.attempts,
		LastError: err.Error(),
		FailedAt:  q.cfg.Now(),
	})
	if over := len(q.failed) - failureHistoryLimit; over > 0 {
		q.failed = append([]FailedWrite(nil), q.failed[over:]...)
	}
	final := fmt.Errorf("%w: %s after %d attempts: %w", ErrRetriesExhausted, item.id, e.attempts, err)
	return outcome{resolved: e.waiters, err: final, attempts: e.attempts, dropped: true}, true
}

// Start launches the periodic drain loop. It is a no-op when already running
// or when the interval is not positive.
func (q *WriteQueue) Start(ctx context.Context) {
	if q.cfg.Interval <= 0 {
		return
	}

	q.mu.Lock()
	if q.cancel != nil {
		q.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.mu.Unlock()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		ticker := time.NewTicker(q.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				q.Drain(ctx)
			}
		}
	}()
}

// Stop ends the periodic drain loop and waits for it to exit.
func (q *WriteQueue) Stop() {
	q.mu.Lock()
	cancel := q.cancel
	q.cancel = nil
	q.mu.Unlock()

	if cancel != nil {
		cancel()
		q.wg.Wait()
	}
}

// Clear discards every pending entry without persisting it.
func (q *WriteQueue) Clear() {
	q.mu.Lock()
	entries := q.entries
	q.entries = make(map[string]*queueEntry)
	q.mu.Unlock()

	for _, e := range entries {
		for _, pw := range e.waiters {
			pw.resolve(ErrQueueCleared)
		}
	}
}

// Len returns the number of pending entries.
func (q *WriteQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Status returns a diagnostic view of the queue.
func (q *WriteQueue) Status() QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := q.sortedLocked()
	st := QueueStatus{
		Pending:  len(entries),
		Draining: q.draining.Load(),
		Entries:  make([]EntryStatus, len(entries)),
		Failed:   append([]FailedWrite{}, q.failed...),
	}
	for i, e := range entries {
		st.Entries[i] = EntryStatus{ID: e.record.ID, Attempts: e.attempts, EnqueuedAt: e.enqueuedAt}
	}
	return st
}

// PendingRecords returns copies of every queued payload in enqueue order.
func (q *WriteQueue) PendingRecords() []models.Record {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := q.sortedLocked()
	out := make([]models.Record, len(entries))
	for i, e := range entries {
		out[i] = e.record.Clone()
	}
	return out
}
