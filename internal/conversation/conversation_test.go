package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/antoniostano/claria/internal/tasks"
)

func pendingState() State {
	return State{
		Intent:       IntentTaskEnrichment,
		AwaitingSlot: tasks.SlotDateTime,
		Slots: tasks.Draft{
			TaskType: tasks.TypeCalendar,
			Content:  "junta con ventas",
			Fecha:    "2025-03-01",
		},
	}
}

func TestMemoryStoreSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)

	fresh, err := s.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if fresh.Pending() || fresh.Intent != "" {
		t.Fatalf("Load() on empty store = %+v, want fresh state", fresh)
	}

	if err := s.Save(ctx, "u1", pendingState()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, _ := s.Load(ctx, " u1 ")
	if got.AwaitingSlot != tasks.SlotDateTime || got.Slots.Fecha != "2025-03-01" {
		t.Fatalf("Load() = %+v, want saved state", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatalf("UpdatedAt not stamped")
	}

	if err := s.Clear(ctx, "u1"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if got, _ := s.Load(ctx, "u1"); got.Pending() {
		t.Fatalf("Load() after Clear = %+v, want fresh", got)
	}
}

func TestMemoryStoreLazyExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(DefaultTTL)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_ = s.Save(ctx, "u1", pendingState())

	now = now.Add(299 * time.Second)
	if got, _ := s.Load(ctx, "u1"); !got.Pending() {
		t.Fatalf("Load() at 299s = %+v, want saved state", got)
	}

	now = now.Add(time.Second)
	if got, _ := s.Load(ctx, "u1"); got.Pending() {
		t.Fatalf("Load() at 300s = %+v, want fresh state", got)
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want expired entry dropped", s.Len())
	}
}

func TestMemoryStoreSaveRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(DefaultTTL)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_ = s.Save(ctx, "u1", pendingState())
	now = now.Add(200 * time.Second)
	st, _ := s.Load(ctx, "u1")
	_ = s.Save(ctx, "u1", st)
	now = now.Add(200 * time.Second)

	if got, _ := s.Load(ctx, "u1"); !got.Pending() {
		t.Fatalf("Load() = %+v, want state kept alive by second save", got)
	}
}

func TestStoreRejectsEmptyKey(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	if _, err := s.Load(context.Background(), "  "); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("Load(empty) error = %v, want ErrEmptyKey", err)
	}
	if err := s.Save(context.Background(), "", State{}); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("Save(empty) error = %v, want ErrEmptyKey", err)
	}
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, ttl)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStoreRoundTripAndTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, DefaultTTL)

	if err := store.Save(ctx, "u1", pendingState()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if ttl := mr.TTL(stateKey("u1")); ttl <= 0 || ttl > DefaultTTL {
		t.Fatalf("unexpected TTL: %v", ttl)
	}

	got, err := store.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.AwaitingSlot != tasks.SlotDateTime || got.Slots.TaskType != tasks.TypeCalendar {
		t.Fatalf("Load() = %+v, want saved state", got)
	}

	mr.FastForward(DefaultTTL + time.Second)
	got, err = store.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load() after expiry error = %v", err)
	}
	if got.Pending() {
		t.Fatalf("Load() after expiry = %+v, want fresh", got)
	}
}

func TestRedisStoreClearAndCorruptValue(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, time.Minute)

	_ = store.Save(ctx, "u1", pendingState())
	if err := store.Clear(ctx, "u1"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if mr.Exists(stateKey("u1")) {
		t.Fatalf("key still present after Clear")
	}

	if err := mr.Set(stateKey("u2"), "{not json"); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}
	got, err := store.Load(ctx, "u2")
	if err != nil {
		t.Fatalf("Load(corrupt) error = %v", err)
	}
	if got.Pending() {
		t.Fatalf("Load(corrupt) = %+v, want fresh", got)
	}
	if mr.Exists(stateKey("u2")) {
		t.Fatalf("corrupt key not dropped")
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	mr.Close()
	if _, err := store.Load(context.Background(), "u1"); err == nil {
		t.Fatalf("Load() expected error when redis is down")
	}
	if err := store.Ping(context.Background()); err == nil {
		t.Fatalf("Ping() expected error when redis is down")
	}
}

func TestNewStoreBackends(t *testing.T) {
	s, err := NewStore(context.Background(), Options{Backend: "memory"})
	if err != nil {
		t.Fatalf("NewStore(memory) error = %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("NewStore(memory) = %T, want *MemoryStore", s)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	s, err = NewStore(context.Background(), Options{Backend: "redis", RedisAddr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewStore(redis) error = %v", err)
	}
	defer s.Close()
	if _, ok := s.(*RedisStore); !ok {
		t.Fatalf("NewStore(redis) = %T, want *RedisStore", s)
	}

	if _, err := NewStore(context.Background(), Options{Backend: "etcd"}); err == nil {
		t.Fatalf("NewStore(etcd) expected error")
	}
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	k := NewKeyedMutex()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("u1")
			defer unlock()
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxSeen)
	}
	if k.Held() != 0 {
		t.Fatalf("Held() = %d, want 0 after all unlocks", k.Held())
	}
}

func TestKeyedMutexDistinctKeysDoNotBlock(t *testing.T) {
	k := NewKeyedMutex()
	unlockA := k.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := k.Lock("b")
		unlock()
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Lock(b) blocked behind Lock(a)")
	}
}
