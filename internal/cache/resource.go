package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Resource caches one API list per browser session. Every load records the
// session's generation when it starts; Invalidate and Forget bump the
// generation, so a fetch that began before a mutation or a logout cannot
// store stale data when it resolves late. Generations are only tracked while
// a session has fetches in flight.
type Resource[T any] struct {
	name  string
	store *LRUCache[T]

	mu      sync.Mutex
	flights map[string]*flight

	hits   atomic.Int64
	misses atomic.Int64
	stale  atomic.Int64
}

type flight struct {
	gen   uint64
	loads int
}

// Stats is a snapshot of a resource's counters.
type Stats struct {
	Name   string
	Size   int
	Hits   int64
	Misses int64
	Stale  int64
}

func NewResource[T any](name string, maxSessions int, ttl time.Duration) *Resource[T] {
	return &Resource[T]{
		name:    name,
		store:   NewLRUCache[T](maxSessions, ttl),
		flights: make(map[string]*flight),
	}
}

func (r *Resource[T]) Name() string { return r.name }

// Load returns the cached value for session or runs fetch. A fetch whose
// generation was overtaken still returns its value to the caller, but is
// not cached.
func (r *Resource[T]) Load(ctx context.Context, session string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := r.store.Get(session); ok {
		r.hits.Add(1)
		return v, nil
	}
	r.misses.Add(1)

	gen := r.begin(session)
	v, err := fetch(ctx)
	if err == nil {
		err = ctx.Err()
	}
	r.finish(session, gen, v, err == nil)
	return v, err
}

// begin registers an in-flight fetch and returns the generation it runs under.
func (r *Resource[T]) begin(session string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flights[session]
	if !ok {
		f = &flight{}
		r.flights[session] = f
	}
	f.loads++
	return f.gen
}

// finish stores v when ok and no invalidation happened after gen was taken.
// The session's entry is dropped once its last fetch is done.
func (r *Resource[T]) finish(session string, gen uint64, v T, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := r.flights[session]
	f.loads--
	if f.loads == 0 {
		delete(r.flights, session)
	}
	if !ok {
		return
	}
	if f.gen != gen {
		r.stale.Add(1)
		return
	}
	r.store.Set(session, v)
}

// supersede drops the cached value and bumps the generation of any fetch
// still in flight for session.
func (r *Resource[T]) supersede(session string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.flights[session]; ok {
		f.gen++
	}
	r.store.Delete(session)
}

// Invalidate drops the cached value and supersedes in-flight fetches.
func (r *Resource[T]) Invalidate(session string) { r.supersede(session) }

// Forget removes all state for a session that ended. Fetches still running
// for it resolve without being cached.
func (r *Resource[T]) Forget(session string) { r.supersede(session) }

// tracked reports how many sessions have fetches in flight.
func (r *Resource[T]) tracked() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flights)
}

func (r *Resource[T]) CleanExpired() int { return r.store.CleanExpired() }

func (r *Resource[T]) Stats() Stats {
	return Stats{
		Name:   r.name,
		Size:   r.store.Size(),
		Hits:   r.hits.Load(),
		Misses: r.misses.Load(),
		Stale:  r.stale.Load(),
	}
}
