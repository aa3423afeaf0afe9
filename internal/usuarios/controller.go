package usuarios

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Source fetches the user list. *Client satisfies it.
type Source interface {
	FetchUsers(ctx context.Context) ([]User, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]User, error)

// FetchUsers calls f(ctx).
func (f SourceFunc) FetchUsers(ctx context.Context) ([]User, error) {
	return f(ctx)
}

// DropRecorder counts outcomes discarded after deactivation.
type DropRecorder interface {
	IncDropped()
}

// Controller tracks the load lifecycle of the usuarios screen.
//
// Deactivate is advisory: it does not abort an in-flight request, it only
// prevents that request's outcome from being applied. Activate clears the
// abandonment flag again, so with overlapping activations the request that
// resolves last wins.
type Controller struct {
	source   Source
	logger   *slog.Logger
	drops    DropRecorder
	observer func(LoadState)

	mu        sync.Mutex
	state     LoadState
	abandoned bool
	version   uint64

	notifyMu sync.Mutex
	notified uint64

	inflight sync.WaitGroup
}

// ControllerOption customises a Controller.
type ControllerOption func(*Controller)

// WithObserver registers a callback invoked after every state change.
// Callbacks are serialised and never see a state older than one already
// delivered; a change superseded before its callback runs is skipped. The
// callback may read State but must not call Activate.
func WithObserver(fn func(LoadState)) ControllerOption {
	return func(c *Controller) { c.observer = fn }
}

// WithControllerLogger sets the controller logger.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDropRecorder reports discarded outcomes.
func WithDropRecorder(rec DropRecorder) ControllerOption {
	return func(c *Controller) { c.drops = rec }
}

// NewController builds a Controller in the idle state.
func NewController(source Source, opts ...ControllerOption) *Controller {
	c := &Controller{
		source: source,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:  LoadState{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() LoadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Activate moves to Loading and starts exactly one fetch. A previous
// outstanding fetch is not cancelled.
func (c *Controller) Activate(ctx context.Context) {
	activationID := uuid.NewString()

	c.mu.Lock()
	c.state = Loading()
	c.abandoned = false
	c.version++
	version := c.version
	c.mu.Unlock()

	c.logger.Debug("usuarios activation started", slog.String("activation_id", activationID))
	c.notify(version, Loading())

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.load(ctx, activationID)
	}()
}

// Deactivate marks the controller as abandoned. Outcomes arriving after this
// call are dropped.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	c.abandoned = true
	c.mu.Unlock()
}

// Wait blocks until every fetch started by Activate has resolved, whether its
// outcome was applied or dropped.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) load(ctx context.Context, activationID string) {
	records, err := c.source.FetchUsers(ctx)

	next := Success(records)
	if err != nil {
		next = Failure(FailureMessage(err))
	}

	c.mu.Lock()
	if c.abandoned {
		c.mu.Unlock()
		c.logger.Debug("usuarios outcome dropped after deactivation",
			slog.String("activation_id", activationID),
			slog.String("phase", string(next.Phase)))
		if c.drops != nil {
			c.drops.IncDropped()
		}
		return
	}
	c.state = next
	c.version++
	version := c.version
	snapshot := next.clone()
	c.mu.Unlock()

	if next.Phase == PhaseFailure {
		c.logger.Warn("usuarios load failed",
			slog.String("activation_id", activationID),
			slog.String("message", next.Message))
	} else {
		c.logger.Info("usuarios loaded",
			slog.String("activation_id", activationID),
			slog.Int("count", len(next.Records)))
	}
	c.notify(version, snapshot)
}

func (c *Controller) notify(version uint64, state LoadState) {
	if c.observer == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if version <= c.notified {
		return
	}
	c.notified = version
	c.observer(state)
}
