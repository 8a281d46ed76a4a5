package helper

import (
	"context"

	"go-firestore-estate/internal/database"
	"go-firestore-estate/internal/repository/filter"
)

// NotifyOnSnapshots feeds every snapshot of path to fn until the subscription ends or fn returns
// an error. A terminal subscription error is handed to fn once.
func NotifyOnSnapshots(ctx context.Context, db database.Client, path string,
	where []filter.Where, fn func(database.SnapshotEvent) error) {

	events := db.Subscribe(ctx, path, where)

	for e := range events {
		if e.Err != nil {
			fn(e)
			return
		}

		if err := fn(e); err != nil {
			return
		}
	}
}

// BlockingWrite waits for the reader or for ctx to be done.
func BlockingWrite[T any](ctx context.Context, ch chan<- T, event T) error {
	select {
	case ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
