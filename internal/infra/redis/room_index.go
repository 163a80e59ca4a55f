package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrClaimLost means a room name is no longer held by this instance.
var ErrClaimLost = errors.New("room name claim lost")

// releaseScript deletes a room key only while it still belongs to the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends a room key's expiry only while it still belongs to the caller.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RoomIndex claims room names in Redis so that instances sharing the same Redis never open
// two rooms with one name. Claims expire after ttl in case an instance dies without
// releasing them; the owning instance keeps live rooms claimed through Refresh.
type RoomIndex struct {
	client *redis.Client
	ttl    time.Duration
	owner  string
}

func NewRoomIndex(client *redis.Client, ttl time.Duration) *RoomIndex {
	return &RoomIndex{
		client: client,
		ttl:    ttl,
		owner:  uuid.NewString(),
	}
}

func (i *RoomIndex) Claim(ctx context.Context, name string) (bool, error) {
	return i.client.SetNX(ctx, i.key(name), i.owner, i.ttl).Result()
}

// Refresh resets the expiry of a claim held by this instance. It reports ErrClaimLost when
// the key expired or was taken by someone else.
func (i *RoomIndex) Refresh(ctx context.Context, name string) error {
	n, err := refreshScript.Run(ctx, i.client, []string{i.key(name)}, i.owner, i.ttl.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("room %s: %w", name, ErrClaimLost)
	}
	return nil
}

func (i *RoomIndex) Release(ctx context.Context, name string) error {
	return releaseScript.Run(ctx, i.client, []string{i.key(name)}, i.owner).Err()
}

func (i *RoomIndex) key(name string) string {
	return "quiz:room:" + name
}
