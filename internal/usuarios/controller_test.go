package usuarios

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchResult struct {
	users []User
	err   error
}

type pendingFetch struct {
	done chan fetchResult
}

// gatedSource blocks every FetchUsers call until the test resolves it.
type gatedSource struct {
	calls chan *pendingFetch
}

func newGatedSource() *gatedSource {
	return &gatedSource{calls: make(chan *pendingFetch, 4)}
}

func (s *gatedSource) FetchUsers(ctx context.Context) ([]User, error) {
	p := &pendingFetch{done: make(chan fetchResult, 1)}
	s.calls <- p
	r := <-p.done
	return r.users, r.err
}

func (s *gatedSource) next(t *testing.T) *pendingFetch {
	t.Helper()
	select {
	case p := <-s.calls:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("expected a fetch to start")
		return nil
	}
}

type countingDrops struct {
	n atomic.Int32
}

func (c *countingDrops) IncDropped() { c.n.Add(1) }

func sampleUsers() []User {
	career := "Medicina"
	return []User{
		{ID: "1", FirstName: "Ana", LastName: "Li", Email: "a@x.com"},
		{ID: "2", FirstName: "Luis", LastName: "Mora", Email: "l@x.com", Career: &career},
		{ID: "3", FirstName: "Eva", LastName: "Soto", Email: "e@x.com"},
	}
}

func TestController_StartsIdle(t *testing.T) {
	c := NewController(newGatedSource())
	assert.Equal(t, PhaseIdle, c.State().Phase)
	assert.False(t, c.State().Terminal())
}

func TestController_LoadingUntilResolved(t *testing.T) {
	src := newGatedSource()
	c := NewController(src)

	c.Activate(context.Background())
	assert.Equal(t, Loading(), c.State())

	p := src.next(t)
	assert.Equal(t, PhaseLoading, c.State().Phase)

	p.done <- fetchResult{users: sampleUsers()}
	c.Wait()
	assert.Equal(t, PhaseSuccess, c.State().Phase)
}

func TestController_SuccessPreservesOrder(t *testing.T) {
	src := newGatedSource()
	c := NewController(src)

	c.Activate(context.Background())
	src.next(t).done <- fetchResult{users: sampleUsers()}
	c.Wait()

	state := c.State()
	require.Equal(t, PhaseSuccess, state.Phase)
	require.Len(t, state.Records, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{state.Records[0].ID, state.Records[1].ID, state.Records[2].ID})
	assert.True(t, state.Terminal())
}

func TestController_SuccessWithNoRecords(t *testing.T) {
	src := newGatedSource()
	c := NewController(src)

	c.Activate(context.Background())
	src.next(t).done <- fetchResult{users: nil}
	c.Wait()

	state := c.State()
	assert.Equal(t, PhaseSuccess, state.Phase)
	assert.NotNil(t, state.Records)
	assert.Empty(t, state.Records)
}

func TestController_FailureMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"status", &HTTPStatusError{Code: 500}, "HTTP 500"},
		{"transport", newTransportError(errors.New("connection refused")), "connection refused"},
		{"transport without text", newTransportError(nil), UnknownErrorMessage},
		{"bare error without text", errors.New(""), UnknownErrorMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := newGatedSource()
			c := NewController(src)

			c.Activate(context.Background())
			src.next(t).done <- fetchResult{err: tc.err}
			c.Wait()

			assert.Equal(t, Failure(tc.want), c.State())
		})
	}
}

func TestController_DeactivateDropsLateOutcome(t *testing.T) {
	for _, outcome := range []fetchResult{{users: sampleUsers()}, {err: &HTTPStatusError{Code: 500}}} {
		src := newGatedSource()
		drops := &countingDrops{}
		c := NewController(src, WithDropRecorder(drops))

		c.Activate(context.Background())
		p := src.next(t)
		c.Deactivate()
		before := c.State()

		p.done <- outcome
		c.Wait()

		assert.Equal(t, before, c.State())
		assert.Equal(t, PhaseLoading, c.State().Phase)
		assert.Equal(t, int32(1), drops.n.Load())
	}
}

func TestController_DeactivateAfterTerminalKeepsState(t *testing.T) {
	src := newGatedSource()
	c := NewController(src)

	c.Activate(context.Background())
	src.next(t).done <- fetchResult{err: &HTTPStatusError{Code: 404}}
	c.Wait()
	c.Deactivate()

	assert.Equal(t, Failure("HTTP 404"), c.State())
}

func TestController_ReactivateClearsAbandonment(t *testing.T) {
	src := newGatedSource()
	c := NewController(src)

	c.Activate(context.Background())
	src.next(t).done <- fetchResult{users: sampleUsers()}
	c.Wait()
	c.Deactivate()

	c.Activate(context.Background())
	assert.Equal(t, PhaseLoading, c.State().Phase)
	src.next(t).done <- fetchResult{users: []User{}}
	c.Wait()

	state := c.State()
	assert.Equal(t, PhaseSuccess, state.Phase)
	assert.Empty(t, state.Records)
}

func TestController_LastResolvedWins(t *testing.T) {
	src := newGatedSource()
	states := make(chan LoadState, 8)
	c := NewController(src, WithObserver(func(s LoadState) { states <- s }))

	c.Activate(context.Background())
	first := src.next(t)
	c.Activate(context.Background())
	second := src.next(t)

	second.done <- fetchResult{users: sampleUsers()}
	waitForPhase(t, states, PhaseSuccess)

	first.done <- fetchResult{err: &HTTPStatusError{Code: 502}}
	c.Wait()

	assert.Equal(t, Failure("HTTP 502"), c.State())
}

func TestController_ObserverSeesTransitions(t *testing.T) {
	src := newGatedSource()
	states := make(chan LoadState, 8)
	c := NewController(src, WithObserver(func(s LoadState) { states <- s }))

	c.Activate(context.Background())
	src.next(t).done <- fetchResult{users: sampleUsers()}
	c.Wait()
	close(states)

	var phases []Phase
	for s := range states {
		phases = append(phases, s.Phase)
	}
	assert.Equal(t, []Phase{PhaseLoading, PhaseSuccess}, phases)
}

func TestController_ObserverSkipsSupersededChange(t *testing.T) {
	var seen []Phase
	c := NewController(newGatedSource(), WithObserver(func(s LoadState) { seen = append(seen, s.Phase) }))

	// A success committed as change 2 is delivered before the loading
	// change 1 that preceded it finishes notifying.
	c.notify(2, Success(sampleUsers()))
	c.notify(1, Loading())
	c.notify(3, Failure("HTTP 500"))

	assert.Equal(t, []Phase{PhaseSuccess, PhaseFailure}, seen)
}

func TestController_ObserverFinalStateMatchesController(t *testing.T) {
	src := newGatedSource()
	var last atomic.Value
	c := NewController(src, WithObserver(func(s LoadState) { last.Store(s) }))

	c.Activate(context.Background())
	first := src.next(t)
	c.Activate(context.Background())
	second := src.next(t)
	first.done <- fetchResult{err: &HTTPStatusError{Code: 503}}
	second.done <- fetchResult{users: sampleUsers()}
	c.Wait()

	assert.Equal(t, c.State(), last.Load())
}

func TestController_StateIsSnapshot(t *testing.T) {
	src := newGatedSource()
	c := NewController(src)

	c.Activate(context.Background())
	src.next(t).done <- fetchResult{users: sampleUsers()}
	c.Wait()

	snapshot := c.State()
	snapshot.Records[0].ID = "mutated"

	assert.Equal(t, "1", c.State().Records[0].ID)
}

func TestController_WithClientEndToEnd(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   Screen
	}{
		{
			name:   "single record without career",
			status: http.StatusOK,
			body:   `{"data":[{"id":"1","nombre":"Ana","apellido":"Li","correo":"a@x.com"}]}`,
			want: Screen{Title: ScreenTitle, Subtitle: ScreenSubtitle, Phase: PhaseSuccess, ShowList: true,
				Cards: []Card{{Key: "1", Name: "Ana Li", Email: "a@x.com"}}},
		},
		{
			name:   "missing data",
			status: http.StatusOK,
			body:   `{}`,
			want:   Screen{Title: ScreenTitle, Subtitle: ScreenSubtitle, Phase: PhaseSuccess, ShowList: true, Empty: EmptyMessage},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `oops`,
			want:   Screen{Title: ScreenTitle, Subtitle: ScreenSubtitle, Phase: PhaseFailure, Error: "Error: HTTP 500"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newUsuariosServer(t, tc.status, tc.body)
			c := NewController(NewClient(srv.URL))

			c.Activate(context.Background())
			c.Wait()

			assert.Equal(t, tc.want, BuildScreen(c.State()))
		})
	}
}

func TestSourceFunc(t *testing.T) {
	c := NewController(SourceFunc(func(ctx context.Context) ([]User, error) {
		return nil, errors.New("")
	}))

	c.Activate(context.Background())
	c.Wait()

	assert.Equal(t, Failure(UnknownErrorMessage), c.State())
}

func waitForPhase(t *testing.T, states <-chan LoadState, phase Phase) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-states:
			if s.Phase == phase {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for phase %s", phase)
		}
	}
}
