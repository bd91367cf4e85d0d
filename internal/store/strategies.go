package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Ummehani3x/ai-goal-planner-aria/internal/observability"
)

// Backend is durable storage behind a StrategyStore.
type Backend interface {
	Put(ctx context.Context, id string, payload []byte) error
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// Lister is implemented by backends that can list stored payloads, newest
// first.
type Lister interface {
	Recent(ctx context.Context, limit int) ([]PlanRecord, error)
}

// Options configures a StrategyStore. Zero MaxEntries and TTL leave the
// store unbounded with no expiry; memory then grows with every new id.
//
// A positive TTL starts a background expiry goroutine that lives as long as
// the process. Build one store per process, not one per request or test case.
type Options struct {
	MaxEntries int
	TTL        time.Duration
	Backend    Backend
	Instance   observability.Instance
	Logger     *observability.Logger
}

// Info describes a store for diagnostics.
type Info struct {
	InstanceID    string        `json:"instanceId"`
	PID           int           `json:"pid"`
	StartTime     time.Time     `json:"startTime"`
	StrategyCount int           `json:"strategyCount"`
	StrategyIDs   []string      `json:"strategyIds"`
	MaxEntries    int           `json:"maxEntries"`
	TTL           time.Duration `json:"ttlNanos"`
	Durable       bool          `json:"durable"`
}

// StrategyStore maps plan ids to payloads for the life of the process. It
// does not inspect payloads. Safe for concurrent use.
type StrategyStore[V any] struct {
	cache    *expirable.LRU[string, V]
	opts     Options
	backend  Backend
	instance observability.Instance
	logger   *observability.Logger
}

func NewStrategyStore[V any](opts Options) *StrategyStore[V] {
	if opts.Logger == nil {
		opts.Logger = observability.NewNopLogger()
	}
	if opts.Instance.ID == "" {
		opts.Instance = observability.NewInstance()
	}
	return &StrategyStore[V]{
		cache:    expirable.NewLRU[string, V](opts.MaxEntries, nil, opts.TTL),
		opts:     opts,
		backend:  opts.Backend,
		instance: opts.Instance,
		logger:   opts.Logger,
	}
}

// Save upserts v under id. The in-memory write always succeeds; an error
// means only the durable write failed.
func (s *StrategyStore[V]) Save(ctx context.Context, id string, v V) error {
	s.cache.Add(id, v)
	s.logger.LogStore("save", id, s.cache.Len())

	if s.backend == nil {
		return nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.backend.Put(ctx, id, payload)
}

// Get returns the payload for id and whether it was found. A miss in memory
// falls through to the backend.
func (s *StrategyStore[V]) Get(ctx context.Context, id string) (V, bool) {
	if v, ok := s.cache.Get(id); ok {
		s.logger.LogStore("hit", id, s.cache.Len())
		return v, true
	}

	var zero V
	if s.backend == nil {
		s.logger.LogStore("miss", id, s.cache.Len())
		return zero, false
	}

	payload, err := s.backend.Fetch(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.LogStore("backend_error", id, s.cache.Len())
		} else {
			s.logger.LogStore("miss", id, s.cache.Len())
		}
		return zero, false
	}

	var v V
	if err := json.Unmarshal(payload, &v); err != nil {
		s.logger.LogStore("decode_error", id, s.cache.Len())
		return zero, false
	}
	s.cache.Add(id, v)
	s.logger.LogStore("restore", id, s.cache.Len())
	return v, true
}

// Recent returns up to limit payloads. A backend that implements Lister is
// the source, newest first; otherwise the in-memory entries are returned,
// most recently used first.
func (s *StrategyStore[V]) Recent(ctx context.Context, limit int) ([]V, error) {
	if limit <= 0 {
		return []V{}, nil
	}

	if l, ok := s.backend.(Lister); ok {
		records, err := l.Recent(ctx, limit)
		if err != nil {
			return nil, err
		}
		out := make([]V, 0, len(records))
		for _, rec := range records {
			var v V
			if err := json.Unmarshal(rec.Payload, &v); err != nil {
				s.logger.LogStore("decode_error", rec.StrategyID, s.cache.Len())
				continue
			}
			out = append(out, v)
		}
		return out, nil
	}

	// Keys are ordered least to most recently used.
	keys := s.cache.Keys()
	out := make([]V, 0, min(limit, len(keys)))
	for i := len(keys) - 1; i >= 0 && len(out) < limit; i-- {
		if v, ok := s.cache.Peek(keys[i]); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// IDs lists the ids held in memory, in no particular order.
func (s *StrategyStore[V]) IDs() []string {
	return s.cache.Keys()
}

func (s *StrategyStore[V]) Len() int {
	return s.cache.Len()
}

func (s *StrategyStore[V]) Info() Info {
	ids := s.IDs()
	return Info{
		InstanceID:    s.instance.ID,
		PID:           s.instance.PID,
		StartTime:     s.instance.StartedAt,
		StrategyCount: len(ids),
		StrategyIDs:   ids,
		MaxEntries:    s.opts.MaxEntries,
		TTL:           s.opts.TTL,
		Durable:       s.backend != nil,
	}
}
