package memory

import (
	"context"
	"sync"
)

// RoomIndex is an in-process implementation of app.RoomIndex for single-instance deployments.
type RoomIndex struct {
	mu    sync.Mutex
	names map[string]struct{}
}

func NewRoomIndex() *RoomIndex {
	return &RoomIndex{names: make(map[string]struct{})}
}

// Claim reserves name; it reports false when the name is already taken.
func (i *RoomIndex) Claim(_ context.Context, name string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.names[name]; ok {
		return false, nil
	}
	i.names[name] = struct{}{}
	return true, nil
}

// Refresh is a no-op; in-process claims do not expire.
func (i *RoomIndex) Refresh(context.Context, string) error {
	return nil
}

func (i *RoomIndex) Release(_ context.Context, name string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.names, name)
	return nil
}

// Len reports the number of claimed names.
func (i *RoomIndex) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.names)
}
