package identity

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"groupchat-backend/internal/models"

	"go.uber.org/zap"
)

func TestLRUCacheBound(t *testing.T) {
	cache := NewLRUCache(2, 0)

	cache.Set(1, models.Identity{UID: 1, Username: "one"})
	cache.Set(2, models.Identity{UID: 2, Username: "two"})
	cache.Set(3, models.Identity{UID: 3, Username: "three"})

	if _, ok := cache.Get(1); ok {
		t.Error("expected the oldest entry evicted at capacity")
	}

	identity, ok := cache.Get(3)
	if !ok {
		t.Fatal("expected the newest entry to be cached")
	}
	if identity.Username != "three" {
		t.Errorf("expected username three, got %s", identity.Username)
	}
}

func TestResolveCachesProviderResponse(t *testing.T) {
	var hits atomic.Int64

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/users/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"username":"alice","avatar":"a.png"}`)
	}))
	defer provider.Close()

	resolver := NewResolver(NewLRUCache(16, 0), provider.URL, zap.NewNop().Sugar())

	for range 3 {
		identity, err := resolver.Resolve(context.Background(), 42)
		if err != nil {
			t.Fatal(err)
		}
		if identity.UID != 42 || identity.Username != "alice" {
			t.Errorf("unexpected identity %+v", identity)
		}
	}

	if hits.Load() != 1 {
		t.Errorf("expected a single provider fetch, got %d", hits.Load())
	}
}

func TestResolveRefetchesAfterTTL(t *testing.T) {
	var hits atomic.Int64

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"username":"alice"}`)
	}))
	defer provider.Close()

	resolver := NewResolver(NewLRUCache(16, 50*time.Millisecond), provider.URL, zap.NewNop().Sugar())

	for range 2 {
		_, err := resolver.Resolve(context.Background(), 42)
		if err != nil {
			t.Fatal(err)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected the entry cached within its lifetime, got %d fetches", hits.Load())
	}

	time.Sleep(120 * time.Millisecond)

	_, err := resolver.Resolve(context.Background(), 42)
	if err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 2 {
		t.Errorf("expected a refetch after the entry expired, got %d fetches", hits.Load())
	}
}

func TestResolveDegradesOnProviderFailure(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer provider.Close()

	cache := NewLRUCache(16, 0)
	resolver := NewResolver(cache, provider.URL, zap.NewNop().Sugar())

	identity, err := resolver.Resolve(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if identity.Username != "User#7" {
		t.Errorf("expected placeholder identity, got %+v", identity)
	}

	// a failed lookup must not poison the cache
	if _, ok := cache.Get(7); ok {
		t.Error("expected the placeholder to stay uncached")
	}
}

func TestResolveWithoutProvider(t *testing.T) {
	resolver := NewResolver(NewLRUCache(16, 0), "", zap.NewNop().Sugar())

	identity, err := resolver.Resolve(context.Background(), 9)
	if err != nil {
		t.Fatal(err)
	}
	if identity.UID != 9 || identity.Username != "User#9" {
		t.Errorf("expected placeholder identity, got %+v", identity)
	}
}
