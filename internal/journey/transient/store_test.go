package transient

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"phone-verification/internal/flow"
	"phone-verification/internal/verification/domain"
)

var testSealKey = bytes.Repeat([]byte{7}, SealKeyLen)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func assertKeySecret(t *testing.T, tr *flow.Transient, key, secret string) {
	t.Helper()
	creds, ok := tr.Credentials()
	if !ok {
		t.Fatal("no credentials")
	}
	gotKey, _ := creds.AppKey()
	gotSecret, _ := creds.AppSecret()
	if gotKey != key || string(gotSecret) != secret {
		t.Errorf("credentials = (%q, %q), want (%q, %q)", gotKey, gotSecret, key, secret)
	}
}

func TestMemoryStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tr := flow.NewTransient(domain.AppKeySecretCredentials("k", []byte("s")))

	if err := s.Put(ctx, "flow-1", tr, time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := s.Get(ctx, "flow-1")
	if err != nil || !ok {
		t.Fatalf("Get = (%v, %v)", ok, err)
	}
	assertKeySecret(t, got, "k", "s")

	if err := s.Delete(ctx, "flow-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "flow-1"); ok {
		t.Error("entry survived Delete")
	}
	if err := s.Delete(ctx, "flow-1"); err != nil {
		t.Errorf("Delete of missing entry: %v", err)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now().UTC()
	s.nowF = func() time.Time { return now }

	_ = s.Put(ctx, "flow-1", flow.NewTransient(domain.AppHashCredentials("h")), time.Minute)
	now = now.Add(time.Minute)
	if _, ok, _ := s.Get(ctx, "flow-1"); ok {
		t.Error("expired entry returned")
	}
}

func TestMemoryStore_AbandonedFlowsAreNotRetained(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now().UTC()
	s.nowF = func() time.Time { return now }

	creds := flow.NewTransient(domain.AppHashCredentials("h"))
	for i := 0; i < 10000; i++ {
		_ = s.Put(ctx, fmt.Sprintf("flow-%d", i), creds, 10*time.Minute)
		_, _ = s.MarkFinished(ctx, fmt.Sprintf("done-%d", i), 10*time.Minute)
	}
	now = now.Add(11 * time.Minute)
	_ = s.Put(ctx, "flow-live", creds, 10*time.Minute)
	_, _ = s.MarkFinished(ctx, "done-live", 10*time.Minute)

	if got := s.Len(); got != 2 {
		t.Errorf("retained entries after every earlier flow expired = %d, want 2", got)
	}
}

func TestMemoryStore_MarkFinished(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now().UTC()
	s.nowF = func() time.Time { return now }

	if done, _ := s.Finished(ctx, "flow-1"); done {
		t.Fatal("new flow reported finished")
	}
	first, err := s.MarkFinished(ctx, "flow-1", time.Minute)
	if err != nil || !first {
		t.Fatalf("MarkFinished = (%v, %v), want (true, nil)", first, err)
	}
	if first, _ := s.MarkFinished(ctx, "flow-1", time.Minute); first {
		t.Error("second MarkFinished should not be first")
	}
	if done, _ := s.Finished(ctx, "flow-1"); !done {
		t.Error("flow should be finished")
	}
	now = now.Add(time.Minute)
	if done, _ := s.Finished(ctx, "flow-1"); done {
		t.Error("finished marker should expire with the flow")
	}
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	s, err := NewRedisStore(client, testSealKey)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}

	if err := s.Put(ctx, "flow-1", flow.NewTransient(domain.AppKeySecretCredentials("app-key", []byte("app-secret"))), time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	raw, err := mr.Get(keyPrefix + ":flow-1")
	if err != nil {
		t.Fatalf("raw get: %v", err)
	}
	if bytes.Contains([]byte(raw), []byte("app-secret")) || bytes.Contains([]byte(raw), []byte("app-key")) {
		t.Error("credentials stored in the clear")
	}
	if ttl := mr.TTL(keyPrefix + ":flow-1"); ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want (0, 1m]", ttl)
	}

	got, ok, err := s.Get(ctx, "flow-1")
	if err != nil || !ok {
		t.Fatalf("Get = (%v, %v)", ok, err)
	}
	assertKeySecret(t, got, "app-key", "app-secret")

	if err := s.Delete(ctx, "flow-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, err := s.Get(ctx, "flow-1"); ok || err != nil {
		t.Errorf("after Delete Get = (%v, %v), want miss", ok, err)
	}
}

func TestRedisStore_AppHashAndExpiry(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	s, _ := NewRedisStore(client, testSealKey)

	_ = s.Put(ctx, "flow-2", flow.NewTransient(domain.AppHashCredentials("the-hash")), time.Minute)
	got, ok, err := s.Get(ctx, "flow-2")
	if err != nil || !ok {
		t.Fatalf("Get = (%v, %v)", ok, err)
	}
	creds, _ := got.Credentials()
	if h, _ := creds.AppHash(); h != "the-hash" {
		t.Errorf("hash = %q, want the-hash", h)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, "flow-2"); ok {
		t.Error("expired entry returned")
	}
}

func TestRedisStore_MarkFinished(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	s, _ := NewRedisStore(client, testSealKey)

	first, err := s.MarkFinished(ctx, "flow-4", time.Minute)
	if err != nil || !first {
		t.Fatalf("MarkFinished = (%v, %v), want (true, nil)", first, err)
	}
	if first, err := s.MarkFinished(ctx, "flow-4", time.Minute); first || err != nil {
		t.Errorf("second MarkFinished = (%v, %v), want (false, nil)", first, err)
	}
	if done, err := s.Finished(ctx, "flow-4"); !done || err != nil {
		t.Errorf("Finished = (%v, %v), want (true, nil)", done, err)
	}
	if ttl := mr.TTL(donePrefix + ":flow-4"); ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want (0, 1m]", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if done, _ := s.Finished(ctx, "flow-4"); done {
		t.Error("finished marker should expire")
	}
}

func TestRedisStore_UnavailableFailsClosed(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	s, _ := NewRedisStore(client, testSealKey)
	mr.Close()

	if _, err := s.Finished(ctx, "flow-5"); err == nil {
		t.Error("Finished should report the redis error")
	}
	if _, err := s.MarkFinished(ctx, "flow-5", time.Minute); err == nil {
		t.Error("MarkFinished should report the redis error")
	}
}

func TestRedisStore_WrongKeyCannotOpen(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	s1, _ := NewRedisStore(client, testSealKey)
	s2, _ := NewRedisStore(client, bytes.Repeat([]byte{9}, SealKeyLen))

	_ = s1.Put(ctx, "flow-3", flow.NewTransient(domain.AppHashCredentials("h")), time.Minute)
	if _, ok, err := s2.Get(ctx, "flow-3"); ok || err == nil {
		t.Errorf("Get with other key = (%v, %v), want corrupt-record error", ok, err)
	}
}

func TestNewRedisStore_KeyLength(t *testing.T) {
	if _, err := NewRedisStore(nil, []byte("short")); err != ErrSealKey {
		t.Errorf("err = %v, want ErrSealKey", err)
	}
}

func TestCodec_RejectsGarbage(t *testing.T) {
	for _, b := range [][]byte{nil, {9, 1}, {codecVersion, 1, 0}, {codecVersion, 2, 0, 5, 'a'}, {codecVersion, 7}} {
		if _, err := decodeTransient(b); err == nil {
			t.Errorf("decodeTransient(%v) should fail", b)
		}
	}
}
