// Package auth resolves who is signed in and whether they may use the admin surface.
package auth

import (
	"context"
	"errors"
	"sync"

	ierr "go-firestore-estate/internal/errors"
	"go-firestore-estate/internal/eventpublisher"
	"go-firestore-estate/internal/eventpublisher/common"
	"go-firestore-estate/internal/eventpublisher/event"
	"go-firestore-estate/internal/model"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var ErrGateClosed = errors.New("auth gate closed")

type RoleFetcher interface {
	GetRole(ctx context.Context, uid string) (string, error)
}

// Gate follows an AuthStateSource and resolves the role of every signed-in identity. A role that
// arrives after the identity changed again is dropped.
type Gate struct {
	source      AuthStateSource
	roles       RoleFetcher
	seq         common.Sequence
	broadcaster *common.Broadcaster

	mu    sync.RWMutex
	state State

	runMu       sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	fetches     *errgroup.Group
}

var _ eventpublisher.Publisher = (*Gate)(nil)

func NewGate(source AuthStateSource, roles RoleFetcher) *Gate {
	return &Gate{
		source:      source,
		roles:       roles,
		broadcaster: common.NewBroadcaster("auth gate"),
		state:       State{Status: StatusUnknown},
	}
}

func (g *Gate) Start(ctx context.Context) {
	g.runMu.Lock()
	defer g.runMu.Unlock()

	if g.cancel != nil {
		return
	}

	g.ctx, g.cancel = context.WithCancel(ctx)
	g.fetches = &errgroup.Group{}
	g.unsubscribe = g.source.OnAuthStateChange(g.onIdentity)
}

// Stop detaches from the source and waits for pending role lookups.
func (g *Gate) Stop() {
	g.runMu.Lock()
	defer g.runMu.Unlock()

	if g.cancel == nil {
		return
	}

	g.unsubscribe()
	g.cancel()
	g.fetches.Wait()
	g.cancel = nil
}

// Close stops the gate and releases its subscribers.
func (g *Gate) Close() {
	g.Stop()
	g.broadcaster.Close()
}

func (g *Gate) onIdentity(identity *model.Identity) {
	ctx := g.ctx

	g.mu.Lock()
	seq := g.seq.Next()
	if identity == nil {
		// identity and role are cleared in the same step
		g.state = State{Seq: seq, Status: StatusSignedOut}
	} else {
		g.state = State{Seq: seq, Status: StatusSignedIn, Identity: identity, RoleLoading: true}
	}
	s := g.state
	g.mu.Unlock()

	g.publish(ctx, s)

	if identity == nil {
		return
	}

	uid := identity.UID
	g.fetches.Go(func() error {
		g.fetchRole(ctx, seq, uid)
		return nil
	})
}

func (g *Gate) fetchRole(ctx context.Context, seq uint64, uid string) {
	role, err := g.roles.GetRole(ctx, uid)

	g.mu.Lock()
	if ctx.Err() != nil || !g.seq.IsCurrent(seq) {
		g.mu.Unlock()
		log.Debug().Msgf("auth gate: dropping role of uid %s", uid)
		return
	}

	g.state.Seq = g.seq.Next()
	g.state.RoleLoading = false
	g.state.Role = role
	if err != nil {
		log.Error().Err(err).Msgf("auth gate: failed to fetch role of uid %s", uid)
		g.state.Role = model.RoleUser
		g.state.RoleError = ierr.Message(err)
	}
	s := g.state
	g.mu.Unlock()

	g.publish(ctx, s)
}

func (g *Gate) publish(ctx context.Context, s State) {
	g.broadcaster.Publish(ctx, event.Event{Seq: s.Seq, Message: s})
}

func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

func (g *Gate) Subscribe(subscriber event.EventWChannel) {
	g.broadcaster.Subscribe(subscriber)
}

func (g *Gate) Unsubscribe(subscriber event.EventWChannel) {
	g.broadcaster.Unsubscribe(subscriber)
}

// Await blocks until cond holds for the current state and returns that state.
func (g *Gate) Await(ctx context.Context, cond func(State) bool) (State, error) {
	ch := make(chan event.Event, 8)
	g.Subscribe(ch)
	defer g.Unsubscribe(ch)

	s := g.State()
	if cond(s) {
		return s, nil
	}

	for {
		select {
		case <-ctx.Done():
			return g.State(), ctx.Err()
		case e, ok := <-ch:
			if !ok {
				return g.State(), ErrGateClosed
			}
			if e.Seq < s.Seq {
				continue
			}
			s = e.Message.(State)
			if cond(s) {
				return s, nil
			}
		}
	}
}

// Resolve builds the resolved State of a single identity, for request scoped checks.
func Resolve(ctx context.Context, roles RoleFetcher, identity *model.Identity) State {
	if identity == nil {
		return State{Status: StatusSignedOut}
	}

	s := State{Status: StatusSignedIn, Identity: identity}
	role, err := roles.GetRole(ctx, identity.UID)
	if err != nil {
		log.Error().Err(err).Msgf("failed to fetch role of uid %s", identity.UID)
		s.Role = model.RoleUser
		s.RoleError = ierr.Message(err)
		return s
	}
	s.Role = role
	return s
}
