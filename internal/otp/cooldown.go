package otp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/sufyan2618/project-management/internal/api"
	"github.com/sufyan2618/project-management/internal/storage"
)

// DefaultCooldown is started after a successful resend or forgot-password
const DefaultCooldown = 60

// ErrCoolingDown is returned by Request while the cooldown is running
var ErrCoolingDown = errors.New("please wait before requesting another code")

// TickerFunc creates the once-per-second source driving a cooldown. The
// returned func stops it.
type TickerFunc func() (<-chan time.Time, func())

func secondTicker() (<-chan time.Time, func()) {
	t := time.NewTicker(time.Second)
	return t.C, t.Stop
}

// Store keeps the cooldown deadline between runs.
// Implementations: storage.Local
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Cooldown counts down whole seconds until another code may be requested
type Cooldown struct {
	mu        sync.Mutex
	remaining int
	running   bool
	stop      chan struct{}
	listeners []func(int)
	newTicker TickerFunc
	store     Store
	now       func() time.Time
}

// NewCooldown creates an idle cooldown driven by the wall clock
func NewCooldown() *Cooldown {
	return NewCooldownWithTicker(secondTicker)
}

// NewCooldownWithTicker creates an idle cooldown driven by tf
func NewCooldownWithTicker(tf TickerFunc) *Cooldown {
	return &Cooldown{newTicker: tf, now: time.Now}
}

// Persist attaches s: a deadline stored by an earlier run resumes the
// countdown, and every later start writes its deadline back
func (c *Cooldown) Persist(s Store) error {
	c.mu.Lock()
	c.store = s
	c.mu.Unlock()

	raw, ok, err := s.Get(storage.KeyOTPCooldownUntil)
	if err != nil {
		return fmt.Errorf("failed to load cooldown: %w", err)
	}
	if !ok || raw == "" {
		return nil
	}
	until, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		log.Printf("warning: ignoring stored cooldown %q: %v", raw, err)
		return nil
	}
	if left := until.Sub(c.now()); left > 0 {
		c.start(int(math.Ceil(left.Seconds())), false)
	}
	return nil
}

// OnChange registers fn to receive the remaining seconds after every change
func (c *Cooldown) OnChange(fn func(remaining int)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Start sets the counter to seconds. A running countdown keeps its single
// ticker, so the counter never drops faster than once per second.
func (c *Cooldown) Start(seconds int) {
	c.start(seconds, true)
}

func (c *Cooldown) start(seconds int, persist bool) {
	c.mu.Lock()
	if seconds <= 0 {
		c.mu.Unlock()
		return
	}
	c.remaining = seconds
	if !c.running {
		c.running = true
		c.stop = make(chan struct{})
		go c.run(c.stop)
	}
	listeners := c.snapshot()
	store, now := c.store, c.now()
	c.mu.Unlock()

	if persist && store != nil {
		until := now.Add(time.Duration(seconds) * time.Second).UTC().Format(time.RFC3339Nano)
		if err := store.Set(storage.KeyOTPCooldownUntil, until); err != nil {
			log.Printf("warning: failed to store cooldown: %v", err)
		}
	}
	c.emit(listeners, seconds)
}

// StartFor starts a cooldown of d rounded up to whole seconds
func (c *Cooldown) StartFor(d time.Duration) {
	c.Start(int(math.Ceil(d.Seconds())))
}

// Remaining returns the seconds left
func (c *Cooldown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Active reports whether requests are currently blocked
func (c *Cooldown) Active() bool {
	return c.Remaining() > 0
}

// Stop cancels the countdown and resets it to zero. A stored deadline is
// kept, so the next Persist resumes it.
func (c *Cooldown) Stop() {
	c.mu.Lock()
	if c.running {
		close(c.stop)
		c.running = false
	}
	c.stop = nil
	c.remaining = 0
	c.mu.Unlock()
}

func (c *Cooldown) run(stop chan struct{}) {
	ticks, halt := c.newTicker()
	defer halt()

	for {
		select {
		case <-stop:
			return
		case <-ticks:
			c.mu.Lock()
			if c.stop != stop {
				c.mu.Unlock()
				return
			}
			if c.remaining > 0 {
				c.remaining--
			}
			left := c.remaining
			if left == 0 {
				c.running = false
			}
			listeners := c.snapshot()
			c.mu.Unlock()

			c.emit(listeners, left)
			if left == 0 {
				return
			}
		}
	}
}

func (c *Cooldown) snapshot() []func(int) {
	return append([]func(int){}, c.listeners...)
}

func (c *Cooldown) emit(listeners []func(int), remaining int) {
	for _, fn := range listeners {
		fn(remaining)
	}
}

// Request runs send unless the cooldown is active. Success starts the
// default cooldown; a rate-limit error starts one for the server's
// retry-after.
func (c *Cooldown) Request(ctx context.Context, send func(ctx context.Context) (string, error)) (string, error) {
	if n := c.Remaining(); n > 0 {
		return "", fmt.Errorf("%w (%ds)", ErrCoolingDown, n)
	}

	msg, err := send(ctx)
	if err != nil {
		if d, ok := api.RetryAfter(err); ok {
			c.StartFor(d)
		}
		return "", err
	}
	c.Start(DefaultCooldown)
	return msg, nil
}
