package user

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go-firestore-estate/internal/database"
	"go-firestore-estate/internal/database/utils"
	ierr "go-firestore-estate/internal/errors"
	"go-firestore-estate/internal/model"
)

type UserRepository struct {
	db database.Client
}

var _ IRepository = UserRepository{}

func New(db database.Client) UserRepository {
	return UserRepository{
		db: db,
	}
}

func userPath(uid string) string {
	return database.Join(userNode, uid)
}

func shortlistPath(uid, propertyId string) string {
	return database.Join(userNode, uid, shortlistNode, propertyId)
}

func (r UserRepository) GetProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	doc, err := r.db.GetDoc(ctx, userPath(uid))
	if err != nil {
		if errors.Is(err, ierr.NotFound) {
			return nil, ierr.NotFound
		}
		return nil, fmt.Errorf("get user: %w, uid: %s", err, uid)
	}

	profile := &model.UserProfile{}
	if err := utils.DocToType(doc, profile); err != nil {
		return nil, fmt.Errorf("get user: %w, uid: %s", err, uid)
	}
	return profile, nil
}

func (r UserRepository) GetRole(ctx context.Context, uid string) (string, error) {
	profile, err := r.GetProfile(ctx, uid)
	if err != nil {
		if errors.Is(err, ierr.NotFound) {
			return model.RoleUser, nil
		}
		return model.RoleUser, err
	}

	if profile.Role == "" {
		return model.RoleUser, nil
	}
	return profile.Role, nil
}

func (r UserRepository) SetRole(ctx context.Context, uid, email, role string) error {
	data := map[string]interface{}{RoleFieldPath: role}
	if email != "" {
		data[EmailFieldPath] = email
	}

	if err := r.db.MergeDoc(ctx, userPath(uid), data); err != nil {
		return fmt.Errorf("set role: %w, uid: %s", err, uid)
	}
	return nil
}

func (r UserRepository) AddShortlist(ctx context.Context, uid, propertyId string, now time.Time) error {
	data := map[string]interface{}{
		PropertyIdFieldPath: propertyId,
		AddedAtFieldPath:    now,
	}

	if err := r.db.SetDoc(ctx, shortlistPath(uid, propertyId), data); err != nil {
		return fmt.Errorf("add shortlist: %w, uid: %s, propertyId: %s", err, uid, propertyId)
	}
	return nil
}

func (r UserRepository) RemoveShortlist(ctx context.Context, uid, propertyId string) error {
	if err := r.db.DeleteDoc(ctx, shortlistPath(uid, propertyId)); err != nil {
		return fmt.Errorf("remove shortlist: %w, uid: %s, propertyId: %s", err, uid, propertyId)
	}
	return nil
}

// ListShortlist returns the entries oldest first.
func (r UserRepository) ListShortlist(ctx context.Context, uid string) ([]model.ShortlistEntry, error) {
	docs, err := r.db.ListDocs(ctx, database.Join(userNode, uid, shortlistNode))
	if err != nil {
		return nil, fmt.Errorf("list shortlist: %w, uid: %s", err, uid)
	}

	entries := make([]model.ShortlistEntry, 0, len(docs))
	for _, doc := range docs {
		entry := model.ShortlistEntry{PropertyId: doc.ID}
		if t, ok := doc.Data[AddedAtFieldPath].(time.Time); ok {
			entry.AddedAt = t
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].AddedAt.Before(entries[j].AddedAt) })
	return entries, nil
}

func (r UserRepository) IsShortlisted(ctx context.Context, uid, propertyId string) (bool, error) {
	_, err := r.db.GetDoc(ctx, shortlistPath(uid, propertyId))
	if err != nil {
		if errors.Is(err, ierr.NotFound) {
			return false, nil
		}
		return false, fmt.Errorf("is shortlisted: %w, uid: %s, propertyId: %s", err, uid, propertyId)
	}
	return true, nil
}
