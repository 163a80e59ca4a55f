package app

import (
	"context"
	"log"
	"sync"
	"time"

	"classroom-quiz/internal/domain"
	"classroom-quiz/internal/metrics"
)

// RoomIndex claims room names outside the process (in-memory, Redis, etc), so that
// several instances never run two rooms under one name. Claims may expire; Refresh
// extends a claim the caller still holds.
type RoomIndex interface {
	Claim(ctx context.Context, name string) (bool, error)
	Refresh(ctx context.Context, name string) error
	Release(ctx context.Context, name string) error
}

// Registry maps normalized room names to their coordinators.
type Registry struct {
	index RoomIndex
	opts  RoomOptions

	mu      sync.Mutex
	rooms   map[string]*Coordinator
	pending map[string]struct{}
}

// NewRegistry builds an empty registry. index may be nil.
func NewRegistry(index RoomIndex, opts RoomOptions) *Registry {
	return &Registry{
		index: index,
		opts:  opts.withDefaults(),
		rooms:   make(map[string]*Coordinator),
		pending: make(map[string]struct{}),
	}
}

// Create opens a room in the Created state with teacher bound to it. Names are
// case-insensitive. The index is consulted without holding the registry lock; the name
// is reserved locally meanwhile.
func (r *Registry) Create(ctx context.Context, name string, teacher domain.Sink) (*Coordinator, error) {
	normalized, err := domain.NormalizeRoomName(name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.takenLocked(normalized) {
		r.mu.Unlock()
		return nil, domain.ErrRoomNameCollision
	}
	r.pending[normalized] = struct{}{}
	r.mu.Unlock()

	if err := r.claim(ctx, normalized); err != nil {
		r.mu.Lock()
		delete(r.pending, normalized)
		r.mu.Unlock()
		return nil, err
	}

	c := newCoordinator(normalized, r.opts, teacher, r.release)
	r.mu.Lock()
	delete(r.pending, normalized)
	r.rooms[normalized] = c
	r.mu.Unlock()

	metrics.RoomsActive.Inc()
	log.Printf("room %s: created", normalized)
	return c, nil
}

func (r *Registry) takenLocked(name string) bool {
	if _, ok := r.pending[name]; ok {
		return true
	}
	existing, ok := r.rooms[name]
	return ok && existing.State() != domain.RoomEnded
}

func (r *Registry) claim(ctx context.Context, name string) error {
	if r.index == nil {
		return nil
	}
	claimed, err := r.index.Claim(ctx, name)
	if err != nil {
		return err
	}
	if !claimed {
		return domain.ErrRoomNameCollision
	}
	return nil
}

// Get returns the live room with the given name.
func (r *Registry) Get(name string) (*Coordinator, error) {
	normalized, err := domain.NormalizeRoomName(name)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rooms[normalized]
	if !ok || c.State() == domain.RoomEnded {
		return nil, domain.ErrRoomNotFound
	}
	return c, nil
}

// Remove ends the named room; the room releases itself from the registry once ended.
func (r *Registry) Remove(ctx context.Context, name string) error {
	c, err := r.Get(name)
	if err != nil {
		return err
	}
	return c.End(ctx)
}

// Len reports the number of registered rooms.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// release is called by a coordinator from its own goroutine once it has ended.
func (r *Registry) release(c *Coordinator) {
	r.mu.Lock()
	current, ok := r.rooms[c.Name()]
	if ok && current == c {
		delete(r.rooms, c.Name())
		metrics.RoomsActive.Dec()
	}
	r.mu.Unlock()

	if ok && current == c && r.index != nil {
		// best-effort; the index entry carries its own TTL
		if err := r.index.Release(context.Background(), c.Name()); err != nil {
			log.Printf("room %s: release name: %v", c.Name(), err)
		}
	}
}

// Sweep ends rooms that were never launched and have been idle for longer than idleTTL.
func (r *Registry) Sweep(ctx context.Context, idleTTL time.Duration) int {
	cutoff := r.opts.Now().Add(-idleTTL)

	r.mu.Lock()
	var idle []*Coordinator
	for _, c := range r.rooms {
		if c.State() == domain.RoomCreated && c.LastActive().Before(cutoff) {
			idle = append(idle, c)
		}
	}
	r.mu.Unlock()

	count := 0
	for _, c := range idle {
		if err := c.End(ctx); err != nil {
			log.Printf("room %s: sweep: %v", c.Name(), err)
			continue
		}
		count++
	}
	return count
}

// Refresh extends the index claims of every live room.
func (r *Registry) Refresh(ctx context.Context) {
	if r.index == nil {
		return
	}
	r.mu.Lock()
	names := make([]string, 0, len(r.rooms))
	for name, c := range r.rooms {
		if c.State() != domain.RoomEnded {
			names = append(names, name)
		}
	}
	r.mu.Unlock()

	for _, name := range names {
		if err := r.index.Refresh(ctx, name); err != nil {
			log.Printf("room %s: refresh name: %v", name, err)
		}
	}
}

// Run sweeps idle rooms and refreshes name claims every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, idleTTL time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(ctx, idleTTL); n > 0 {
				log.Printf("swept %d idle rooms", n)
			}
			r.Refresh(ctx)
		}
	}
}

// Close ends every room.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	rooms := make([]*Coordinator, 0, len(r.rooms))
	for _, c := range r.rooms {
		rooms = append(rooms, c)
	}
	r.mu.Unlock()

	for _, c := range rooms {
		if err := c.End(ctx); err != nil {
			log.Printf("room %s: close: %v", c.Name(), err)
		}
	}
}
