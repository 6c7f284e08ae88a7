package cron

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Samyy-Momin/onefooddialer/internal/subscriptions"
	"github.com/Samyy-Momin/onefooddialer/pkg/config"
	"github.com/Samyy-Momin/onefooddialer/pkg/logger"
)

type fakeLockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{data: map[string]string{}}
}

func (f *fakeLockStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value.(string)
	return true, nil
}

func (f *fakeLockStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key], nil
}

func (f *fakeLockStore) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeLockStore) LockKey(name string) string { return "ofd:lock:" + name }

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func newTestService(t *testing.T, store locker) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(config.CronConfig{TickInterval: time.Minute, LockTTL: time.Minute}, store, nil, logg)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestRunAllExecutesJobs(t *testing.T) {
	store := newFakeLockStore()
	svc := newTestService(t, store)

	first := &countingJob{name: "first"}
	second := &countingJob{name: "second", err: errors.New("boom")}
	svc.Register(first)
	svc.Register(second)

	svc.RunAll(context.Background())

	if first.runs != 1 || second.runs != 1 {
		t.Fatalf("runs = %d/%d, want 1/1", first.runs, second.runs)
	}
	if len(store.data) != 0 {
		t.Fatalf("locks should be released after the run, %d left", len(store.data))
	}
}

func TestLockPreventsConcurrentRun(t *testing.T) {
	store := newFakeLockStore()
	svc := newTestService(t, store)

	job := &countingJob{name: "sweep"}
	svc.Register(job)

	// Another replica holds the lock.
	store.data[store.LockKey("sweep")] = uuid.NewString()

	svc.RunAll(context.Background())
	if job.runs != 0 {
		t.Fatal("job must not run while another replica holds the lock")
	}

	delete(store.data, store.LockKey("sweep"))
	svc.RunAll(context.Background())
	if job.runs != 1 {
		t.Fatalf("runs = %d, want 1 after the lock is free", job.runs)
	}
}

func TestReleaseOnlyDropsOwnLock(t *testing.T) {
	store := newFakeLockStore()
	lock := newJobLock(store, time.Minute)

	release, acquired, err := lock.acquire(context.Background(), "sweep")
	if err != nil || !acquired {
		t.Fatalf("acquire = %v/%v, want success", acquired, err)
	}

	// Simulate expiry plus re-acquisition by another replica.
	otherOwner := uuid.NewString()
	store.mu.Lock()
	store.data[store.LockKey("sweep")] = otherOwner
	store.mu.Unlock()

	release()

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.data[store.LockKey("sweep")] != otherOwner {
		t.Fatal("release must not drop a lock owned by another replica")
	}
}

type fakeProcessor struct {
	run *subscriptions.RenewalRun
	err error
}

func (f *fakeProcessor) ProcessRenewals(ctx context.Context, batchSize int) (*subscriptions.RenewalRun, error) {
	return f.run, f.err
}

func TestBillingCycleJob(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	job, err := NewBillingCycleJob(&fakeProcessor{run: &subscriptions.RenewalRun{Processed: 2, Paid: 1, Unpaid: 1}}, 0, logg)
	if err != nil {
		t.Fatalf("unexpected job error: %v", err)
	}
	if job.batchSize != 100 {
		t.Fatalf("batch size = %d, want default 100", job.batchSize)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
}
