package eventpublisher

import (
	"go-firestore-estate/internal/eventpublisher/event"
)

type Publisher interface {
	Subscribe(event.EventWChannel)
	Unsubscribe(event.EventWChannel)
}
