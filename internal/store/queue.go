package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking/internal/observability"
)

const defaultWriteTimeout = 5 * time.Second

type opKind int

const (
	opSet opKind = iota
	opRemove
)

type writeOp struct {
	kind  opKind
	value json.RawMessage
}

// lane holds the pending writes of one key. idle is non-nil while a drain
// goroutine owns the lane and is closed when the lane empties.
type lane struct {
	pending []writeOp
	idle    chan struct{}
}

// Queue wraps a Store and applies writes asynchronously, one key at a time,
// in call order. Values are snapshotted when Set is called, so later mutation
// of the caller's data never leaks into the persisted value. Reads of a key
// wait until that key's pending writes have landed.
type Queue struct {
	backend Store
	logger  *zap.Logger
	metrics *observability.Metrics
	timeout time.Duration

	mu    sync.Mutex
	lanes map[string]*lane
}

// NewQueue builds a write queue in front of backend.
func NewQueue(backend Store, logger *zap.Logger, metrics *observability.Metrics) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		backend: backend,
		logger:  logger,
		metrics: metrics,
		timeout: defaultWriteTimeout,
		lanes:   make(map[string]*lane),
	}
}

func (q *Queue) Get(ctx context.Context, key string, dest any) (bool, error) {
	if err := q.waitKey(ctx, key); err != nil {
		return false, err
	}
	return q.backend.Get(ctx, key, dest)
}

// Set enqueues a write and returns once the value is snapshotted. Write
// failures are logged and counted rather than returned.
func (q *Queue) Set(_ context.Context, key string, value any) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	q.enqueue(key, writeOp{kind: opSet, value: append(json.RawMessage(nil), raw...)})
	return nil
}

func (q *Queue) Remove(_ context.Context, key string) error {
	q.enqueue(key, writeOp{kind: opRemove})
	return nil
}

// Flush blocks until every write enqueued before the call has been applied.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	waits := make([]chan struct{}, 0, len(q.lanes))
	for _, l := range q.lanes {
		if l.idle != nil {
			waits = append(waits, l.idle)
		}
	}
	q.mu.Unlock()

	for _, ch := range waits {
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (q *Queue) enqueue(key string, op writeOp) {
	q.mu.Lock()
	defer q.mu.Unlock()

	l, ok := q.lanes[key]
	if !ok {
		l = &lane{}
		q.lanes[key] = l
	}
	l.pending = append(l.pending, op)
	if l.idle == nil {
		l.idle = make(chan struct{})
		go q.drain(key, l)
	}
}

func (q *Queue) waitKey(ctx context.Context, key string) error {
	q.mu.Lock()
	var ch chan struct{}
	if l, ok := q.lanes[key]; ok {
		ch = l.idle
	}
	q.mu.Unlock()

	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) drain(key string, l *lane) {
	for {
		q.mu.Lock()
		if len(l.pending) == 0 {
			close(l.idle)
			l.idle = nil
			q.mu.Unlock()
			return
		}
		// Every op replaces the whole value, so only the newest pending one matters.
		next := l.pending[len(l.pending)-1]
		l.pending = l.pending[:0]
		q.mu.Unlock()

		q.apply(key, next)
	}
}

func (q *Queue) apply(key string, op writeOp) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	var err error
	switch op.kind {
	case opSet:
		err = q.backend.Set(ctx, key, op.value)
	case opRemove:
		err = q.backend.Remove(ctx, key)
	}
	if err != nil {
		q.metrics.RecordStoreFailure(key)
		q.logger.Warn("store write failed", zap.String("key", key), zap.Error(err))
	}
}
