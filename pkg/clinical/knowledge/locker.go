package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrIndexBusy = errors.New("knowledge base index is being rebuilt")

// Locker serializes index builds per organization. The returned unlock func must be called once.
type Locker interface {
	Lock(ctx context.Context, orgId string) (unlock func(), err error)
}

// LocalLocker serializes builds inside one process. Different organizations never block each other.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) slot(orgId string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[orgId]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[orgId] = s
	}
	return s
}

func (l *LocalLocker) Lock(ctx context.Context, orgId string) (func(), error) {
	s := l.slot(orgId)
	select {
	case s <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-s }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker extends LocalLocker across processes that share one index store.
type RedisLocker struct {
	client *redis.Client
	local  *LocalLocker
	ttl    time.Duration
	poll   time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisLocker{
		client: client,
		local:  NewLocalLocker(),
		ttl:    ttl,
		poll:   250 * time.Millisecond,
	}
}

func lockKey(orgId string) string {
	return fmt.Sprintf("kb:index-lock:%s", orgId)
}

func (r *RedisLocker) Lock(ctx context.Context, orgId string) (func(), error) {
	unlockLocal, err := r.local.Lock(ctx, orgId)
	if err != nil {
		return nil, err
	}

	key := lockKey(orgId)
	token := uuid.NewString()
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			unlockLocal()
			return nil, fmt.Errorf("acquire index lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			unlockLocal()
			return nil, fmt.Errorf("%w: %v", ErrIndexBusy, ctx.Err())
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release with a fresh context so a cancelled caller still frees the lock.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, r.client, []string{key}, token).Err()
			unlockLocal()
		})
	}, nil
}
