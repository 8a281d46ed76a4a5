package property

import (
	"context"

	"go-firestore-estate/internal/repository/filter"
	"go-firestore-estate/internal/repository/ops"
	propertyRepo "go-firestore-estate/internal/repository/property"
)

// Source opens one live subscription. The channel closes after a terminal error or when ctx is done.
type Source func(ctx context.Context) <-chan propertyRepo.PropertyEvent

type Factory interface {
	OnAll() Source
	OnFeatured() Source
	OnPendingApproval() Source
}

type factory struct {
	repo propertyRepo.IRepository
}

func PropertySourceFactory(repo propertyRepo.IRepository) Factory {
	return &factory{
		repo: repo,
	}
}

func (f *factory) OnAll() Source {
	return func(ctx context.Context) <-chan propertyRepo.PropertyEvent {
		return f.repo.NotifyOnSnapshot(ctx, nil)
	}
}

func (f *factory) OnFeatured() Source {
	return func(ctx context.Context) <-chan propertyRepo.PropertyEvent {
		return f.repo.NotifyOnSnapshot(ctx,
			[]filter.Where{{Path: propertyRepo.FeaturedFieldPath, Op: ops.Equal, Value: true}})
	}
}

func (f *factory) OnPendingApproval() Source {
	return func(ctx context.Context) <-chan propertyRepo.PropertyEvent {
		return f.repo.NotifyOnSnapshot(ctx,
			[]filter.Where{{Path: propertyRepo.ApprovedFieldPath, Op: ops.Equal, Value: false}})
	}
}
