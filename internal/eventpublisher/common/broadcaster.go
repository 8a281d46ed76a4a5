package common

import (
	"context"
	"sync"
	"time"

	"go-firestore-estate/internal/eventpublisher/event"

	"github.com/rs/zerolog/log"
)

const (
	defaultWriteTimeout          = time.Second
	defaultWriteFailureThreshold = 3
)

// Broadcaster fans states out to subscribers in publish order. Subscribers that keep missing
// writes are unsubscribed.
type Broadcaster struct {
	name       string
	submanager *SubManager
	publisher  *PublisherWithFailureThreshold
	publishMu  sync.Mutex
}

func NewBroadcaster(name string) *Broadcaster {
	return &Broadcaster{
		name:       name,
		submanager: NewSubManager(),
		publisher:  NewPublisherWithFailureThreshold(defaultWriteTimeout, defaultWriteFailureThreshold),
	}
}

func (b *Broadcaster) Subscribe(subscriber event.EventWChannel) {
	b.submanager.Subscribe(subscriber)
}

// Unsubscribe waits for a running Publish, so the channel is never closed under a pending write.
func (b *Broadcaster) Unsubscribe(subscriber event.EventWChannel) {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()
	b.unsubscribeLocked(subscriber)
}

func (b *Broadcaster) unsubscribeLocked(subscriber event.EventWChannel) {
	b.submanager.Unsubscribe(subscriber)
	b.publisher.Forget(subscriber)
}

func (b *Broadcaster) Subscribers() int {
	return b.submanager.Len()
}

// Publish delivers e to every subscriber before returning, one subscriber at a time.
func (b *Broadcaster) Publish(ctx context.Context, e event.Event) {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	b.submanager.OnSubscribers(func(subscriber event.EventWChannel) {
		if err := b.publisher.Publish(ctx, subscriber, e); err != nil {
			log.Warn().Err(err).Msgf("%s: dropping a slow subscriber", b.name)
			b.unsubscribeLocked(subscriber)
		}
	})
}

func (b *Broadcaster) Close() {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()
	b.submanager.UnsubscribeAll()
}
