package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalesce_SlowReaderGetsLatest(t *testing.T) {
	in := make(chan int)
	out := Coalesce(context.Background(), in)

	for i := 1; i <= 5; i++ {
		in <- i
	}
	close(in)

	var got []int
	for v := range out {
		got = append(got, v)
	}
	require.NotEmpty(t, got)
	assert.Equal(t, 5, got[len(got)-1])
	assert.Less(t, len(got), 5)
}

func TestCoalesce_KeepsOrder(t *testing.T) {
	in := make(chan int)
	out := Coalesce(context.Background(), in)

	for i := 1; i <= 3; i++ {
		in <- i
		assert.Equal(t, i, <-out)
	}
	close(in)
	_, ok := <-out
	assert.False(t, ok)
}

func TestCoalesce_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan int)
	out := Coalesce(ctx, in)

	in <- 1
	cancel()

	select {
	case _, ok := <-out:
		// the pending value may still win the race against ctx
		if ok {
			_, ok = <-out
			assert.False(t, ok)
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
