package forms

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// SharedFetches joins concurrent fetches of the same key into one call and keeps the
// settled result for Keep, so a follow-up request (a page refresh, the submit after it)
// picks it up instead of starting over.
type SharedFetches[T any] struct {
	Keep time.Duration

	group singleflight.Group
	now   func() time.Time

	mu   sync.Mutex
	kept map[string]keptFetch[T]
	gen  map[string]uint64
}

type keptFetch[T any] struct {
	rec   *T
	err   error
	until time.Time
}

func NewSharedFetches[T any](keep time.Duration) *SharedFetches[T] {
	return &SharedFetches[T]{Keep: keep, now: time.Now}
}

// Fetch returns the kept result for key, joins the fetch already running for key, or
// runs fetch. The fetch itself outlives ctx; only the wait is bounded by it.
func (s *SharedFetches[T]) Fetch(ctx context.Context, key string, fetch func(context.Context) (*T, error)) (*T, error) {
	s.mu.Lock()
	if k, ok := s.kept[key]; ok {
		if s.clock().Before(k.until) {
			s.mu.Unlock()
			return k.rec, k.err
		}
		delete(s.kept, key)
	}
	gen := s.gen[key]
	s.mu.Unlock()

	ch := s.group.DoChan(key, func() (interface{}, error) {
		rec, err := fetch(context.WithoutCancel(ctx))
		s.keep(key, gen, rec, err)
		return rec, err
	})
	select {
	case r := <-ch:
		rec, _ := r.Val.(*T)
		return rec, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *SharedFetches[T]) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *SharedFetches[T]) keep(key string, gen uint64, rec *T, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[key] != gen || s.Keep <= 0 {
		return
	}
	now := s.clock()
	for k, v := range s.kept {
		if !now.Before(v.until) {
			delete(s.kept, k)
		}
	}
	if s.kept == nil {
		s.kept = map[string]keptFetch[T]{}
	}
	s.kept[key] = keptFetch[T]{rec: rec, err: err, until: now.Add(s.Keep)}
}

// Forget drops the kept result for key. A fetch still running for key will not be kept.
func (s *SharedFetches[T]) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.kept, key)
	if s.gen == nil {
		s.gen = map[string]uint64{}
	}
	s.gen[key]++
	s.group.Forget(key)
}

// SharedAccessor routes Fetch through Shared, keyed by Scope and id. A successful
// Update forgets the kept copy.
type SharedAccessor[T, D any] struct {
	Accessor[T, D]
	Shared *SharedFetches[T]
	// Scope separates callers that may see different data, such as sessions.
	Scope string
}

func (a SharedAccessor[T, D]) key(id string) string {
	return a.Scope + "|" + id
}

func (a SharedAccessor[T, D]) Fetch(ctx context.Context, id string) (*T, error) {
	if a.Shared == nil {
		return a.Accessor.Fetch(ctx, id)
	}
	return a.Shared.Fetch(ctx, a.key(id), func(ctx context.Context) (*T, error) {
		return a.Accessor.Fetch(ctx, id)
	})
}

func (a SharedAccessor[T, D]) Update(ctx context.Context, id string, d D) (*T, error) {
	rec, err := a.Accessor.Update(ctx, id, d)
	if err == nil && a.Shared != nil {
		a.Shared.Forget(a.key(id))
	}
	return rec, err
}
