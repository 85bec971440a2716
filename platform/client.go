// Package platform is the facade over the remote services the analysis
// pipeline depends on: sessions, file storage, the evaluation model and the
// key-value store.
package platform

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"resume-analyzer/domain"
	"resume-analyzer/logger"
	"resume-analyzer/metrics"
)

const (
	DefaultPollInterval     = 100 * time.Millisecond
	DefaultBootstrapTimeout = 10 * time.Second
	DefaultFeedbackModel    = "claude-3-7-sonnet"
)

type State int

const (
	Uninitialized State = iota
	Ready
	Authenticated
	Anonymous
	Unavailable
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	case Unavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) available() bool {
	return s == Ready || s == Authenticated || s == Anonymous
}

// Client is built once and handed to every consumer.
type Client struct {
	backends         Backends
	pollInterval     time.Duration
	bootstrapTimeout time.Duration
	feedbackModel    string
	logger           *zap.Logger
	metrics          *metrics.Manager

	mu       sync.RWMutex
	state    State
	err      string
	inflight int
	user     *domain.User

	initOnce sync.Once
	ready    chan struct{}

	Auth *Auth
	FS   *FS
	AI   *AI
	KV   *KV
}

type Option func(*Client)

func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

func WithBootstrapTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.bootstrapTimeout = d
		}
	}
}

func WithFeedbackModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.feedbackModel = model
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithMetrics(m *metrics.Manager) Option {
	return func(c *Client) { c.metrics = m }
}

func New(backends Backends, opts ...Option) *Client {
	c := &Client{
		backends:         backends,
		pollInterval:     DefaultPollInterval,
		bootstrapTimeout: DefaultBootstrapTimeout,
		feedbackModel:    DefaultFeedbackModel,
		ready:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.WithFields(c.logger, zap.String("component", "platform"))

	c.Auth = &Auth{c: c}
	c.FS = &FS{c: c}
	c.AI = &AI{c: c}
	c.KV = &KV{c: c}
	return c
}

// Init starts the bootstrap once and returns a channel that is closed when
// the state has settled. Later calls return the same channel; read the
// settled state with State.
func (c *Client) Init(ctx context.Context) <-chan struct{} {
	c.initOnce.Do(func() {
		go c.bootstrap(ctx)
	})
	return c.ready
}

func (c *Client) bootstrap(ctx context.Context) {
	bctx, cancel := context.WithTimeout(ctx, c.bootstrapTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	c.startOp()

	for {
		err := c.backends.ping(bctx)
		if err == nil {
			c.settle(ctx)
			return
		}
		c.logger.Debug("platform not detected yet", zap.Error(err))

		select {
		case <-ticker.C:
		case <-bctx.Done():
			if ctx.Err() != nil {
				c.fail(ctx, "bootstrap", ctx.Err())
			} else {
				c.fail(ctx, "bootstrap", fmt.Errorf("%w within %s", ErrBootstrapTimeout, c.bootstrapTimeout))
			}
			c.finishInit(Unavailable)
			return
		}
	}
}

func (c *Client) settle(ctx context.Context) {
	c.setState(Ready)
	c.logger.Info("platform detected")

	user, err := c.backends.Session.Status(ctx)
	if err != nil {
		c.fail(ctx, "auth", fmt.Errorf("failed to check auth status: %w", err))
		c.finishInit(Anonymous)
		return
	}
	c.setUser(user)
	c.finishInit(c.State())
}

func (c *Client) finishInit(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.endOp()
	c.logger.Info("platform settled", zap.Stringer("state", s))
	close(c.ready)
}

func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// setUser moves an available client to Authenticated or Anonymous.
func (c *Client) setUser(user *domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = user
	if !c.state.available() {
		return
	}
	if user != nil {
		c.state = Authenticated
	} else {
		c.state = Anonymous
	}
}

// Err returns the last recorded error message. Successful calls leave it
// untouched.
func (c *Client) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *Client) ClearError() {
	c.mu.Lock()
	c.err = ""
	c.mu.Unlock()
}

// Loading reports whether any facade call is in flight.
func (c *Client) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inflight > 0
}

func (c *Client) startOp() {
	c.mu.Lock()
	c.inflight++
	c.mu.Unlock()
}

func (c *Client) endOp() {
	c.mu.Lock()
	if c.inflight > 0 {
		c.inflight--
	}
	c.mu.Unlock()
}

// begin marks a call as in flight. When the platform is unavailable it
// records the error, settles the loading flag and returns false.
func (c *Client) begin(ctx context.Context, group string) bool {
	c.startOp()
	if c.State().available() {
		return true
	}
	c.fail(ctx, group, ErrNotAvailable)
	c.endOp()
	return false
}

func (c *Client) fail(ctx context.Context, group string, err error) {
	if calls := CallErrorsFrom(ctx); calls != nil {
		calls.add(err)
	}
	msg := err.Error()
	if errors.Is(err, ErrNotAvailable) {
		msg = ErrNotAvailable.Error()
	}
	c.mu.Lock()
	c.err = msg
	c.mu.Unlock()
	c.metrics.RecordPlatformError(group)
	c.logger.Warn("platform call failed", zap.String("group", group), zap.Error(err))
}

// Available reports whether bootstrap settled on a usable state.
func (c *Client) Available() bool {
	return c.State().available()
}
