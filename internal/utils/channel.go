package utils

import "context"

// Coalesce forwards the values of in. While the reader is behind only the latest undelivered value
// is held, so intermediate values may be skipped but the last one is always delivered. The returned
// channel is closed once in is closed and drained, or when ctx is done.
func Coalesce[T any](ctx context.Context, in <-chan T) <-chan T {
	out := make(chan T)

	go func() {
		defer close(out)

		var latest T
		pending := false
		for in != nil || pending {
			var send chan<- T
			if pending {
				send = out
			}

			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					in = nil
					continue
				}
				latest, pending = v, true
			case send <- latest:
				var zero T
				latest, pending = zero, false
			}
		}
	}()

	return out
}
