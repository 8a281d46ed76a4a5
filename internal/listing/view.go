// Package listing keeps the current property list of one live subscription in memory.
package listing

import (
	"context"
	"fmt"
	"sync"

	ierr "go-firestore-estate/internal/errors"
	"go-firestore-estate/internal/eventpublisher"
	"go-firestore-estate/internal/eventpublisher/common"
	"go-firestore-estate/internal/eventpublisher/event"
	propertySource "go-firestore-estate/internal/eventpublisher/property"
	"go-firestore-estate/internal/model"

	"github.com/rs/zerolog/log"
)

// Snapshot is the state of a View after one delivery. Properties and Err are never both set.
type Snapshot struct {
	Seq        uint64            `json:"seq"`
	Loading    bool              `json:"loading"`
	Properties []model.Property  `json:"properties"`
	Rejected   []model.Rejection `json:"rejected,omitempty"`
	Err        error             `json:"-"`
	Code       ierr.Code         `json:"code,omitempty"`
	ErrMessage string            `json:"error,omitempty"`
}

type View struct {
	name        string
	source      propertySource.Source
	seq         common.Sequence
	broadcaster *common.Broadcaster

	stateMu sync.RWMutex
	state   Snapshot

	runMu  sync.Mutex
	base   context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

var _ eventpublisher.Publisher = (*View)(nil)

func New(name string, source propertySource.Source) *View {
	return &View{
		name:        name,
		source:      source,
		broadcaster: common.NewBroadcaster(fmt.Sprintf("listing %s", name)),
		state:       Snapshot{Properties: []model.Property{}},
	}
}

// Start opens the subscription. It is a no-op while one is already open. ctx bounds the
// subscription and every later Retry.
func (v *View) Start(ctx context.Context) error {
	v.runMu.Lock()
	defer v.runMu.Unlock()

	if v.cancel != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	v.base = ctx
	v.startLocked()
	return nil
}

func (v *View) startLocked() {
	ctx, cancel := context.WithCancel(v.base)
	done := make(chan struct{})
	v.cancel = cancel
	v.done = done

	v.apply(ctx, Snapshot{Loading: true, Properties: []model.Property{}})

	go v.run(ctx, done)
}

func (v *View) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	events := v.source(ctx)
	for e := range events {
		if e.Err != nil {
			v.fail(ctx, e.Err)
			return
		}

		if len(e.Rejected) > 0 {
			log.Warn().Msgf("listing %s: %d invalid properties left out", v.name, len(e.Rejected))
		}
		v.apply(ctx, Snapshot{Properties: e.Properties, Rejected: e.Rejected})
	}

	// the source gave up on its own; the held list is no longer live
	if ctx.Err() == nil {
		v.fail(ctx, fmt.Errorf("listing %s: %w", v.name, ierr.ErrSubscriptionClosed))
	}
}

func (v *View) fail(ctx context.Context, err error) {
	log.Error().Err(err).Msgf("listing %s: subscription failed", v.name)
	v.apply(ctx, Snapshot{
		Properties: []model.Property{},
		Err:        err,
		Code:       ierr.Classify(err),
		ErrMessage: ierr.Message(err),
	})
}

// apply replaces the state unless the subscription that produced it has been stopped.
func (v *View) apply(ctx context.Context, s Snapshot) {
	v.stateMu.Lock()
	if ctx.Err() != nil {
		v.stateMu.Unlock()
		return
	}
	s.Seq = v.seq.Next()
	v.state = s
	v.stateMu.Unlock()

	v.broadcaster.Publish(ctx, event.Event{Seq: s.Seq, Message: s, Err: s.Err})
}

// Stop closes the subscription and waits until no more deliveries can happen. The held state
// is kept. Calling Stop more than once is fine.
func (v *View) Stop() {
	v.runMu.Lock()
	defer v.runMu.Unlock()
	v.stopLocked()
}

func (v *View) stopLocked() {
	if v.cancel == nil {
		return
	}

	v.stateMu.Lock()
	v.cancel()
	v.stateMu.Unlock()

	<-v.done
	v.cancel = nil
	v.done = nil
}

// Retry replaces the subscription with a new one. The view must have been started.
func (v *View) Retry() error {
	v.runMu.Lock()
	defer v.runMu.Unlock()

	if v.base == nil {
		return fmt.Errorf("listing %s: retry before start", v.name)
	}
	if err := v.base.Err(); err != nil {
		return err
	}

	v.stopLocked()
	v.startLocked()
	return nil
}

// NotifyOnline re-subscribes when the view failed for connectivity reasons and reports whether
// it did.
func (v *View) NotifyOnline() bool {
	if v.Snapshot().Code != ierr.CodeUnavailable {
		return false
	}

	if err := v.Retry(); err != nil {
		log.Error().Err(err).Msgf("listing %s: failed to re-subscribe", v.name)
		return false
	}
	return true
}

func (v *View) Snapshot() Snapshot {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	return v.state
}

// Find looks a property up in the current snapshot.
func (v *View) Find(id string) (model.Property, bool) {
	for _, p := range v.Snapshot().Properties {
		if p.Id == id {
			return p, true
		}
	}
	return model.Property{}, false
}

// Subscribe registers a receiver of every later Snapshot, delivered as event.Event messages in
// order. The channel is closed on Unsubscribe, Close, or when the receiver stops reading.
func (v *View) Subscribe(subscriber event.EventWChannel) {
	v.broadcaster.Subscribe(subscriber)
}

func (v *View) Unsubscribe(subscriber event.EventWChannel) {
	v.broadcaster.Unsubscribe(subscriber)
}

// Close stops the view and releases its subscribers.
func (v *View) Close() {
	v.Stop()
	v.broadcaster.Close()
}
