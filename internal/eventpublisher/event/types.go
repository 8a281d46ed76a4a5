package event

type (
	// Event is one state published to subscribers. Seq grows with every publish of the same
	// source, so a receiver can tell a newer state from an older one.
	Event struct {
		Seq     uint64
		Message interface{}
		Err     error
	}

	EventWChannel chan<- Event
)
