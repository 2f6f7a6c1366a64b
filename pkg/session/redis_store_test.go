package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := OpenRedis(context.Background(), RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("OpenRedis() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := setupRedisStore(t)
	storeContract(t, store)
}

func TestRedisStore_Keys(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	d := finishedSession("Chemistry", t0, 2)
	if err := store.Save(ctx, d); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !mr.Exists(sessionKey(d.ID)) {
		t.Errorf("key %s missing", sessionKey(d.ID))
	}
	members, err := mr.ZMembers(redisIndexKey)
	if err != nil {
		t.Fatalf("ZMembers() error = %v", err)
	}
	if len(members) != 1 || members[0] != d.ID {
		t.Errorf("index members = %v", members)
	}
	score, _ := mr.ZScore(redisIndexKey, d.ID)
	if int64(score) != d.StartTime {
		t.Errorf("index score = %v, want %d", score, d.StartTime)
	}
}

func TestRedisStore_ListSkipsDanglingIndex(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	d := finishedSession("Music", t0, 1)
	store.Save(ctx, d)
	mr.ZAdd(redisIndexKey, float64(t0+1), "ghost")

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != d.ID {
		t.Errorf("List() = %v", ids(list))
	}
}

func TestRedisStore_Empty(t *testing.T) {
	store, _ := setupRedisStore(t)

	list, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("List() = %#v, want empty non-nil", list)
	}
}

func TestOpenRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := OpenRedis(context.Background(), RedisConfig{Addr: addr}); err == nil {
		t.Error("expected connection error")
	}
}

func TestNewRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client)
	defer store.Close()

	if _, err := store.Get(context.Background(), "missing"); err == nil {
		t.Error("expected not found")
	}
}
