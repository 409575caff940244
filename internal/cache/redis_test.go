package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testRedisStore(t *testing.T, key string, ttl time.Duration) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return newRedisStoreWithClient(client, key, "https://api.pact.im", 1, ttl)
}

func TestRedisStore_PutAndGet(t *testing.T) {
	s := testRedisStore(t, "channels", DefaultTTL)

	type item struct {
		ID       int    `json:"id"`
		Provider string `json:"provider"`
	}

	s.Put([]item{{ID: 1, Provider: "whatsapp"}})

	var got []item
	if !s.Get(&got) {
		t.Fatal("expected cache hit")
	}
	if len(got) != 1 || got[0].Provider != "whatsapp" {
		t.Fatalf("unexpected items: %+v", got)
	}
}

func TestRedisStore_MissOnEmpty(t *testing.T) {
	s := testRedisStore(t, "channels", DefaultTTL)

	var got []string
	if s.Get(&got) {
		t.Fatal("expected cache miss on empty store")
	}
}

func TestRedisStore_Clear(t *testing.T) {
	s := testRedisStore(t, "channels", DefaultTTL)

	s.Put([]string{"a"})
	s.Clear()

	var got []string
	if s.Get(&got) {
		t.Fatal("expected cache miss after clear")
	}
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s := newRedisStoreWithClient(client, "channels", "https://api.pact.im", 1, 50*time.Millisecond)

	s.Put([]string{"a"})
	mr.FastForward(100 * time.Millisecond)

	var got []string
	if s.Get(&got) {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestRedisStore_DisabledByEnv(t *testing.T) {
	t.Setenv("PACT_NO_CACHE", "1")
	s := testRedisStore(t, "channels", DefaultTTL)

	s.Put([]string{"a"})

	var got []string
	if s.Get(&got) {
		t.Fatal("expected cache miss when disabled via env")
	}
}

func TestRedisStore_KeyScoping(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s1 := newRedisStoreWithClient(client, "channels", "https://api.pact.im", 1, DefaultTTL)
	s2 := newRedisStoreWithClient(client, "channels", "https://api.pact.im", 2, DefaultTTL)

	s1.Put([]string{"company1"})
	s2.Put([]string{"company2"})

	var got1, got2 []string
	s1.Get(&got1)
	s2.Get(&got2)

	if len(got1) != 1 || got1[0] != "company1" {
		t.Fatalf("unexpected company 1 items: %v", got1)
	}
	if len(got2) != 1 || got2[0] != "company2" {
		t.Fatalf("unexpected company 2 items: %v", got2)
	}
}

func TestNewRedisStore_BadURL(t *testing.T) {
	if _, err := NewRedisStore("not-a-url", "channels", "https://api.pact.im", 1, DefaultTTL); err == nil {
		t.Fatal("expected error for invalid redis URL")
	}
}
