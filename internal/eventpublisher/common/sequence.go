package common

import "sync/atomic"

// Sequence numbers the states of one source. Work started for a state applies its result only
// while that state is still the latest one.
type Sequence struct {
	n atomic.Uint64
}

// Next starts a new state and returns its number.
func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

func (s *Sequence) Current() uint64 {
	return s.n.Load()
}

func (s *Sequence) IsCurrent(seq uint64) bool {
	return s.n.Load() == seq
}
