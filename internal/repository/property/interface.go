package property

import (
	"context"

	"go-firestore-estate/internal/model"
	"go-firestore-estate/internal/repository/filter"
)

// PropertyEvent is one full snapshot of the matched properties, normalized. Records that fail
// validation are listed in Rejected instead of Properties. A non-nil Err ends the stream.
type PropertyEvent struct {
	Properties []model.Property
	Rejected   []model.Rejection
	Err        error
}

type IRepository interface {
	GetById(ctx context.Context, id string) (*model.Property, error)
	List(ctx context.Context) ([]model.Property, error)
	Create(ctx context.Context, data model.Property) (string, error)
	Update(ctx context.Context, id string, data model.Property) error
	SetApproved(ctx context.Context, id string, approved bool) error
	Delete(ctx context.Context, id string) error
	NotifyOnSnapshot(ctx context.Context, where []filter.Where) <-chan PropertyEvent
}
