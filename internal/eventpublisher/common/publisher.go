package common

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-firestore-estate/internal/eventpublisher/event"
)

var ErrWriteFailure = fmt.Errorf("write failure threshold exceeded")

type PublisherWithFailureThreshold struct {
	writeTimeout          time.Duration
	writeFailureThreshold int
	failureCount          map[event.EventWChannel]int
	failureMu             sync.Mutex
}

func NewPublisherWithFailureThreshold(writeTimeout time.Duration, writeFailureThreshold int) *PublisherWithFailureThreshold {
	return &PublisherWithFailureThreshold{
		writeTimeout:          writeTimeout,
		writeFailureThreshold: writeFailureThreshold,
		failureCount:          make(map[event.EventWChannel]int),
		failureMu:             sync.Mutex{},
	}
}

// Publish writes e to subscriber within the write timeout. A missed write is counted against the
// subscriber and ErrWriteFailure is returned once it reaches the threshold; a successful write
// resets the count.
func (p *PublisherWithFailureThreshold) Publish(ctx context.Context, subscriber event.EventWChannel, e event.Event) (err error) {

	defer func() {
		// The subscriber may have been unsubscribed, and its channel closed, while this write
		// was pending. Writing on the closed channel panics; treat it as a failed subscriber.
		if p := recover(); p != nil {
			err = ErrWriteFailure
		}
	}()

	select {
	case subscriber <- e:
		p.Forget(subscriber)
		return nil
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	select {
	case subscriber <- e:
		p.Forget(subscriber)
		return nil
	case <-ctx.Done():
		p.failureMu.Lock()
		count := p.failureCount[subscriber] + 1
		p.failureCount[subscriber] = count
		p.failureMu.Unlock()

		if count >= p.writeFailureThreshold {
			err = ErrWriteFailure
			return
		}
		return nil
	}
}

// Forget resets the failure count of a subscriber.
func (p *PublisherWithFailureThreshold) Forget(subscriber event.EventWChannel) {
	p.failureMu.Lock()
	defer p.failureMu.Unlock()
	delete(p.failureCount, subscriber)
}
