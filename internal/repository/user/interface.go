package user

import (
	"context"
	"time"

	"go-firestore-estate/internal/model"
)

type IRepository interface {
	// GetRole falls back to model.RoleUser when the user document or its role is absent.
	GetRole(ctx context.Context, uid string) (string, error)
	GetProfile(ctx context.Context, uid string) (*model.UserProfile, error)
	SetRole(ctx context.Context, uid, email, role string) error

	AddShortlist(ctx context.Context, uid, propertyId string, now time.Time) error
	RemoveShortlist(ctx context.Context, uid, propertyId string) error
	ListShortlist(ctx context.Context, uid string) ([]model.ShortlistEntry, error)
	IsShortlisted(ctx context.Context, uid, propertyId string) (bool, error)
}
