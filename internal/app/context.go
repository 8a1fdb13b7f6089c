// Package app wires the client together. A Context is built once per
// process and handed to every view (CLI command or web handler); it owns
// the API client, the persisted session, the query cache, the notification
// feed and the per-view selection state.
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/sufyan2618/project-management/internal/api"
	"github.com/sufyan2618/project-management/internal/config"
	"github.com/sufyan2618/project-management/internal/notify"
	"github.com/sufyan2618/project-management/internal/otp"
	"github.com/sufyan2618/project-management/internal/query"
	"github.com/sufyan2618/project-management/internal/realtime"
	"github.com/sufyan2618/project-management/internal/session"
	"github.com/sufyan2618/project-management/internal/storage"
	"github.com/sufyan2618/project-management/pkg/types"
)

// Socket is the real-time channel opened after sign-in.
// Implementations: realtime.Client
type Socket interface {
	Connect(ctx context.Context, token string) error
	Close() error
}

// Context is the application state shared by all views
type Context struct {
	Config   *config.Config
	API      *api.Client
	Session  *session.Store
	Cache    *query.Cache
	Notify   *notify.Feed
	Socket   Socket
	Cooldown *otp.Cooldown

	now     func() time.Time
	closers []io.Closer
	writes  *writes

	mu              sync.Mutex
	selectedProject *types.Project
	selectedTask    *types.Task
	projectFilters  types.ProjectFilters
	taskFilters     types.TaskFilters
}

// Option configures a Context
type Option func(*Context)

// WithSocket replaces the real-time channel; nil disables it
func WithSocket(s Socket) Option {
	return func(c *Context) { c.Socket = s }
}

// WithAPIOptions passes options through to the API client
func WithAPIOptions(opts ...api.Option) Option {
	return func(c *Context) {
		c.API = api.NewClient(c.Config.API.BaseURL, append(c.apiDefaults(), opts...)...)
	}
}

// WithClock sets the time source used for session checks
func WithClock(now func() time.Time) Option {
	return func(c *Context) { c.now = now }
}

// WithCooldown replaces the resend cooldown
func WithCooldown(cd *otp.Cooldown) Option {
	return func(c *Context) { c.Cooldown = cd }
}

// New creates a Context over an already opened session store
func New(cfg *config.Config, kv session.KV, opts ...Option) (*Context, error) {
	store, err := session.NewStore(kv)
	if err != nil {
		return nil, err
	}

	c := &Context{
		Config:         cfg,
		Session:        store,
		Notify:         notify.NewFeed(notify.DefaultDuration),
		Cooldown:       otp.NewCooldown(),
		now:            time.Now,
		projectFilters: types.DefaultProjectFilters(),
		taskFilters:    types.DefaultTaskFilters(),
		Cache: query.NewCache(query.Options{
			Retry:     cfg.Query.Retry,
			StaleTime: time.Duration(cfg.Query.StaleSeconds) * time.Second,
		}),
	}
	c.API = api.NewClient(cfg.API.BaseURL, c.apiDefaults()...)
	c.writes = c.newWrites()
	if cfg.Socket.Enabled {
		c.Socket = realtime.NewClient(cfg.Socket.URL)
	}

	for _, opt := range opts {
		opt(c)
	}
	if err := c.Cooldown.Persist(kv); err != nil {
		log.Printf("warning: %v", err)
	}
	return c, nil
}

// Open opens local storage from cfg and creates a Context over it. Close
// releases the storage.
func Open(cfg *config.Config, opts ...Option) (*Context, error) {
	local, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	c, err := New(cfg, local, opts...)
	if err != nil {
		local.Close()
		return nil, err
	}
	c.closers = append(c.closers, local)
	return c, nil
}

func (c *Context) apiDefaults() []api.Option {
	return []api.Option{
		api.WithTimeout(time.Duration(c.Config.API.TimeoutSeconds) * time.Second),
		api.WithToken(func() string { return c.Session.State().Token }),
	}
}

// Close stops the socket and releases storage. A running resend cooldown
// stays stored and resumes on the next Open.
func (c *Context) Close() error {
	c.Cooldown.Stop()
	if c.Socket != nil {
		if err := c.Socket.Close(); err != nil {
			log.Printf("warning: failed to close socket: %v", err)
		}
	}
	var firstErr error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close storage: %w", err)
		}
	}
	return firstErr
}

// Now returns the current time from the context's clock
func (c *Context) Now() time.Time {
	return c.now()
}

// State returns the current session
func (c *Context) State() session.State {
	return c.Session.State()
}

// Navigate resolves path against the route table for the current session
// and returns where the user ends up
func (c *Context) Navigate(path string) string {
	return resolve(c.State(), path, c.now())
}

// ConnectSocket opens the real-time channel for the current session. A
// failure is logged; the rest of the client works without it.
func (c *Context) ConnectSocket(ctx context.Context) {
	st := c.State()
	if c.Socket == nil || !st.IsAuthenticated || st.Token == "" {
		return
	}
	if err := c.Socket.Connect(ctx, st.Token); err != nil {
		log.Printf("warning: socket connection failed: %v", err)
	}
}

// RefreshOnEvents marks cached task and project queries stale whenever the
// socket delivers a server event, so the next view refetches
func (c *Context) RefreshOnEvents() {
	sock, ok := c.Socket.(*realtime.Client)
	if !ok {
		return
	}
	sock.OnAny(func(ev realtime.Event) {
		switch ev.Name {
		case realtime.EventConnect, realtime.EventDisconnect, realtime.EventConnectError:
			return
		}
		c.Cache.Invalidate(query.Tasks)
		c.Cache.Invalidate(query.TaskDetail)
		c.Cache.Invalidate(query.Projects)
		c.Cache.Invalidate(query.ProjectDetail)
	})
}
