package cron

import (
	"context"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/Samyy-Momin/onefooddialer/pkg/errors"
)

// locker is the redis surface used for distributed job locks.
type locker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(name string) string
}

// jobLock serializes a named job across worker replicas. The lock expires on
// its own if a holder dies mid-run.
type jobLock struct {
	store locker
	ttl   time.Duration
}

func newJobLock(store locker, ttl time.Duration) *jobLock {
	return &jobLock{store: store, ttl: ttl}
}

// acquire returns a release function when this worker won the lock, or false
// when another replica holds it.
func (l *jobLock) acquire(ctx context.Context, name string) (func(), bool, error) {
	key := l.store.LockKey(name)
	owner := uuid.NewString()

	ok, err := l.store.SetNX(ctx, key, owner, l.ttl)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire job lock")
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// Only the owner may release; a stale replica must not drop a lock
		// someone else re-acquired after expiry.
		current, err := l.store.Get(context.Background(), key)
		if err != nil || current != owner {
			return
		}
		_ = l.store.Del(context.Background(), key)
	}
	return release, true, nil
}
