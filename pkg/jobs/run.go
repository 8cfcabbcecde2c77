package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunStatus is the lifecycle state of a job run.
type RunStatus string

const (
	RunQueued    RunStatus = "QUEUED"
	RunExecuting RunStatus = "EXECUTING"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
	RunCancelled RunStatus = "CANCELLED"
)

// ErrRunNotFound is returned when the registry holds no run for an id.
var ErrRunNotFound = errors.New("job run not found")

// ErrRunContended is returned when an update keeps losing to concurrent
// writers.
var ErrRunContended = errors.New("job run update contended")

const maxUpdateAttempts = 5

// Run is one execution instance of a background job.
type Run struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    RunStatus `json:"status"`
	Attempt   int       `json:"attempt"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsExecuting reports whether the run is currently being worked on.
func (r *Run) IsExecuting() bool {
	return r != nil && r.Status == RunExecuting
}

// Finished reports whether the run reached a terminal state.
func (r *Run) Finished() bool {
	if r == nil {
		return false
	}
	switch r.Status {
	case RunCompleted, RunFailed, RunCancelled:
		return true
	default:
		return false
	}
}

// UpdateFunc computes the next state of a run from its current one. current
// is nil when no run is stored. Returning a nil run leaves the store as is.
type UpdateFunc func(current *Run) (*Run, error)

// RunStore persists run state so request handlers and workers share one view.
// Update is atomic with respect to every other write, so a status transition
// never overwrites a concurrent cancellation.
type RunStore interface {
	Save(ctx context.Context, run *Run) error
	Retrieve(ctx context.Context, id string) (*Run, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (*Run, error)
}

// RedisRunStore keeps runs as JSON documents with a TTL.
type RedisRunStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisRunStore builds a Redis backed registry.
func NewRedisRunStore(client *redis.Client, prefix string, ttl time.Duration) *RedisRunStore {
	if prefix == "" {
		prefix = "proceso:jobs:run:"
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisRunStore{client: client, prefix: prefix, ttl: ttl}
}

// Save upserts the run document.
func (s *RedisRunStore) Save(ctx context.Context, run *Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run id required")
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", run.ID, err)
	}
	if err := s.client.Set(ctx, s.prefix+run.ID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set run %s: %w", run.ID, err)
	}
	return nil
}

// Retrieve loads a run by id.
func (s *RedisRunStore) Retrieve(ctx context.Context, id string) (*Run, error) {
	raw, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("redis get run %s: %w", id, err)
	}
	var run Run
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, fmt.Errorf("unmarshal run %s: %w", id, err)
	}
	return &run, nil
}

// Update applies fn under WATCH and writes the result in a MULTI block. A
// write by another client between the read and the commit restarts fn.
func (s *RedisRunStore) Update(ctx context.Context, id string, fn UpdateFunc) (*Run, error) {
	key := s.prefix + id
	var result *Run
	txf := func(tx *redis.Tx) error {
		current, err := decodeRun(tx.Get(ctx, key).Bytes())
		if err != nil {
			return fmt.Errorf("redis get run %s: %w", id, err)
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			result = current
			return nil
		}
		next.ID = id
		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal run %s: %w", id, err)
		}
		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		}); err != nil {
			return err
		}
		result = next
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("run %s: %w", id, ErrRunContended)
}

func decodeRun(raw []byte, err error) (*Run, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var run Run
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// MemoryRunStore is a process-local registry used when Redis is disabled.
type MemoryRunStore struct {
	mu   sync.RWMutex
	runs map[string]Run
}

// NewMemoryRunStore constructs an empty registry.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{runs: make(map[string]Run)}
}

// Save stores a copy of run.
func (s *MemoryRunStore) Save(_ context.Context, run *Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run id required")
	}
	s.mu.Lock()
	s.runs[run.ID] = *run
	s.mu.Unlock()
	return nil
}

// Retrieve returns a copy of the stored run.
func (s *MemoryRunStore) Retrieve(_ context.Context, id string) (*Run, error) {
	s.mu.RLock()
	run, ok := s.runs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrRunNotFound
	}
	return &run, nil
}

// Update applies fn while holding the store lock.
func (s *MemoryRunStore) Update(_ context.Context, id string, fn UpdateFunc) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current *Run
	if run, ok := s.runs[id]; ok {
		current = &run
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return current, nil
	}
	next.ID = id
	s.runs[id] = *next
	stored := *next
	return &stored, nil
}

// ErrRunFinished is returned when cancelling a run that already ended.
var ErrRunFinished = errors.New("job run already finished")

// Cancel marks a run cancelled. Workers skip cancelled runs and notification
// handlers refuse to send for them.
func Cancel(ctx context.Context, store RunStore, id string) (*Run, error) {
	finished := false
	run, err := store.Update(ctx, id, func(current *Run) (*Run, error) {
		finished = false
		if current == nil {
			return nil, ErrRunNotFound
		}
		if current.Status == RunCancelled {
			return nil, nil
		}
		if current.Finished() {
			finished = true
			return nil, nil
		}
		next := *current
		next.Status = RunCancelled
		next.UpdatedAt = time.Now().UTC()
		return &next, nil
	})
	if err != nil {
		return nil, err
	}
	if finished {
		return run, ErrRunFinished
	}
	return run, nil
}
