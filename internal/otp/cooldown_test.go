package otp

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sufyan2618/project-management/internal/api"
	"github.com/sufyan2618/project-management/internal/storage"
)

type manualTicker struct {
	ticks   chan time.Time
	created atomic.Int32
}

func newManualTicker() *manualTicker {
	return &manualTicker{ticks: make(chan time.Time)}
}

func (m *manualTicker) fn() (<-chan time.Time, func()) {
	m.created.Add(1)
	return m.ticks, func() {}
}

func newTestCooldown(t *testing.T) (*Cooldown, *manualTicker, chan int) {
	t.Helper()
	mt := newManualTicker()
	c := NewCooldownWithTicker(mt.fn)
	changes := make(chan int, 16)
	c.OnChange(func(n int) { changes <- n })
	t.Cleanup(c.Stop)
	return c, mt, changes
}

func next(t *testing.T, changes chan int) int {
	t.Helper()
	select {
	case n := <-changes:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cooldown change")
		return -1
	}
}

func TestCooldownCountsDownOncePerTick(t *testing.T) {
	t.Parallel()

	c, mt, changes := newTestCooldown(t)
	c.Start(3)
	if got := next(t, changes); got != 3 {
		t.Fatalf("Expected 3 after start, got %d", got)
	}
	if !c.Active() {
		t.Fatal("Expected cooldown to be active")
	}

	for want := 2; want >= 0; want-- {
		mt.ticks <- time.Now()
		if got := next(t, changes); got != want {
			t.Fatalf("Expected %d after tick, got %d", want, got)
		}
	}

	if c.Active() {
		t.Error("Expected cooldown to finish at zero")
	}
}

func TestCooldownRestartKeepsSingleTicker(t *testing.T) {
	t.Parallel()

	c, mt, changes := newTestCooldown(t)
	c.Start(3)
	next(t, changes)
	mt.ticks <- time.Now()
	next(t, changes)

	c.Start(5)
	if got := next(t, changes); got != 5 {
		t.Fatalf("Expected restart at 5, got %d", got)
	}
	mt.ticks <- time.Now()
	if got := next(t, changes); got != 4 {
		t.Fatalf("Expected 4 after one tick, got %d", got)
	}
	if n := mt.created.Load(); n != 1 {
		t.Errorf("Expected one ticker, got %d", n)
	}
}

func TestCooldownIgnoresNonPositiveStart(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestCooldown(t)
	c.Start(0)
	c.StartFor(0)
	if c.Active() {
		t.Error("Expected cooldown to stay idle")
	}
}

func TestRequestStartsDefaultCooldown(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestCooldown(t)
	msg, err := c.Request(context.Background(), func(ctx context.Context) (string, error) {
		return "OTP sent", nil
	})
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if msg != "OTP sent" {
		t.Errorf("Expected message passthrough, got %q", msg)
	}
	if got := c.Remaining(); got != DefaultCooldown {
		t.Errorf("Expected %d seconds, got %d", DefaultCooldown, got)
	}

	called := false
	_, err = c.Request(context.Background(), func(ctx context.Context) (string, error) {
		called = true
		return "", nil
	})
	if !errors.Is(err, ErrCoolingDown) {
		t.Errorf("Expected ErrCoolingDown, got %v", err)
	}
	if called {
		t.Error("Expected no request while cooling down")
	}
}

func TestRequestRateLimitedUsesRetryAfter(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestCooldown(t)
	_, err := c.Request(context.Background(), func(ctx context.Context) (string, error) {
		return "", &api.RateLimitError{
			Message:    "Please wait 42 seconds before requesting another OTP",
			RetryAfter: 42 * time.Second,
		}
	})
	if err == nil {
		t.Fatal("Expected rate limit error")
	}
	if got := c.Remaining(); got != 42 {
		t.Errorf("Expected 42 second cooldown, got %d", got)
	}
}

func TestRequestOtherErrorLeavesCooldownIdle(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestCooldown(t)
	_, err := c.Request(context.Background(), func(ctx context.Context) (string, error) {
		return "", &api.Error{StatusCode: 404, Message: "User not found"}
	})
	if err == nil {
		t.Fatal("Expected error")
	}
	if c.Active() {
		t.Error("Expected no cooldown after a non rate-limit failure")
	}
}

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}}
}

func (m *memStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func TestPersistedCooldownResumesInNewCooldown(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()

	first, _, changes := newTestCooldown(t)
	first.now = func() time.Time { return now }
	if err := first.Persist(store); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	first.Start(DefaultCooldown)
	next(t, changes)
	first.Stop()

	raw, ok, _ := store.Get(storage.KeyOTPCooldownUntil)
	if !ok {
		t.Fatal("Expected the deadline to stay stored after Stop")
	}
	if want := now.Add(time.Minute).Format(time.RFC3339Nano); raw != want {
		t.Errorf("Expected deadline %s, got %s", want, raw)
	}

	second, _, _ := newTestCooldown(t)
	second.now = func() time.Time { return now.Add(15 * time.Second) }
	if err := second.Persist(store); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	if got := second.Remaining(); got != 45 {
		t.Errorf("Expected 45 seconds left after restore, got %d", got)
	}

	sent := 0
	_, err := second.Request(context.Background(), func(context.Context) (string, error) {
		sent++
		return "sent", nil
	})
	if !errors.Is(err, ErrCoolingDown) {
		t.Errorf("Expected ErrCoolingDown, got %v", err)
	}
	if sent != 0 {
		t.Errorf("Expected no request while restored cooldown runs, got %d", sent)
	}
}

func TestPersistIgnoresPastAndMalformedDeadlines(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		raw  string
	}{
		{"expired", now.Add(-time.Second).Format(time.RFC3339Nano)},
		{"malformed", "soon"},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			store.Set(storage.KeyOTPCooldownUntil, tc.raw)

			c, _, _ := newTestCooldown(t)
			c.now = func() time.Time { return now }
			if err := c.Persist(store); err != nil {
				t.Fatalf("Persist failed: %v", err)
			}
			if c.Active() {
				t.Errorf("Expected idle cooldown, got %d seconds", c.Remaining())
			}
		})
	}
}
