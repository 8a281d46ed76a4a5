package property

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-firestore-estate/internal/database"
	ierr "go-firestore-estate/internal/errors"
	"go-firestore-estate/internal/model"
	"go-firestore-estate/internal/normalize"
	"go-firestore-estate/internal/repository/filter"
	"go-firestore-estate/internal/repository/helper"
	"go-firestore-estate/internal/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type PropertyRepository struct {
	db         database.Client
	normalizer *normalize.Normalizer
}

var _ IRepository = PropertyRepository{}

func New(db database.Client, normalizer *normalize.Normalizer) PropertyRepository {
	if normalizer == nil {
		normalizer = normalize.New("")
	}
	return PropertyRepository{
		db:         db,
		normalizer: normalizer,
	}
}

func docPath(id string) string {
	return database.Join(propertyNode, id)
}

// GetById returns the normalized property. A stored record that fails validation is returned
// together with an error wrapping ierr.ErrInvalidProperty.
func (r PropertyRepository) GetById(ctx context.Context, id string) (*model.Property, error) {

	doc, err := r.db.GetDoc(ctx, docPath(id))
	if err != nil {
		if errors.Is(err, ierr.NotFound) {
			return nil, ierr.NotFound
		}
		return nil, fmt.Errorf("get property: %w, id: %s", err, id)
	}

	result := r.normalizer.Property(doc.ID, doc.Data)
	if !result.Valid {
		return &result.Property, fmt.Errorf("get property: %w: %s", ierr.ErrInvalidProperty, result.Err())
	}
	return &result.Property, nil
}

// List reads the collection once. Invalid records are skipped.
func (r PropertyRepository) List(ctx context.Context) ([]model.Property, error) {
	docs, err := r.db.ListDocs(ctx, propertyNode)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}

	return r.toEvent(docs).Properties, nil
}

// Create stores a new property and returns its id. An empty id gets a generated one.
func (r PropertyRepository) Create(ctx context.Context, data model.Property) (string, error) {

	if data.Id == "" {
		data.Id = uuid.NewString()
	}

	p, err := r.GetById(ctx, data.Id)
	if p != nil {
		return "", fmt.Errorf("create property: %w, id: %s", ierr.ErrAlreadyExists, data.Id)
	}

	if err != nil && !errors.Is(err, ierr.NotFound) {
		return "", fmt.Errorf("create property: %w, id: %s", err, data.Id)
	}

	data.CreatedAt = time.Now().UTC()
	data.UpdatedAt = data.CreatedAt

	result := r.normalizer.Property(data.Id, data.Fields())
	if !result.Valid {
		return "", fmt.Errorf("create property: %w: %s", ierr.ErrInvalidProperty, result.Err())
	}

	if err := r.db.SetDoc(ctx, docPath(data.Id), result.Property.Fields()); err != nil {
		return "", fmt.Errorf("create property: %w, id: %s", err, data.Id)
	}

	return data.Id, nil
}

// Update replaces the listing fields of an existing property. CreatedAt is kept.
func (r PropertyRepository) Update(ctx context.Context, id string, data model.Property) error {

	result := r.normalizer.Property(id, data.Fields())
	if !result.Valid {
		return fmt.Errorf("update property: %w: %s", ierr.ErrInvalidProperty, result.Err())
	}

	fields := result.Property.Fields()
	delete(fields, CreatedAtFieldPath)
	fields[UpdatedAtFieldPath] = time.Now().UTC()

	updates := make([]database.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, database.Update{Path: path, Value: value})
	}

	if err := r.db.UpdateDoc(ctx, docPath(id), updates); err != nil {
		if errors.Is(err, ierr.NotFound) {
			return ierr.NotFound
		}
		return fmt.Errorf("update property: %w, id: %s", err, id)
	}
	return nil
}

func (r PropertyRepository) SetApproved(ctx context.Context, id string, approved bool) error {
	updates := []database.Update{
		{Path: ApprovedFieldPath, Value: approved},
		{Path: UpdatedAtFieldPath, Value: time.Now().UTC()},
	}

	if err := r.db.UpdateDoc(ctx, docPath(id), updates); err != nil {
		if errors.Is(err, ierr.NotFound) {
			return ierr.NotFound
		}
		return fmt.Errorf("set property approval: %w, id: %s", err, id)
	}
	return nil
}

func (r PropertyRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.DeleteDoc(ctx, docPath(id)); err != nil {
		return fmt.Errorf("delete property: %w, id: %s", err, id)
	}
	return nil
}

// NotifyOnSnapshot streams the normalized property set on every change. A reader that falls behind
// skips to the latest snapshot instead of losing it.
func (r PropertyRepository) NotifyOnSnapshot(ctx context.Context, where []filter.Where) <-chan PropertyEvent {

	ch := make(chan PropertyEvent)

	go func() {
		defer close(ch)

		helper.NotifyOnSnapshots(ctx, r.db, propertyNode, where, func(e database.SnapshotEvent) error {

			if e.Err != nil {
				log.Error().Err(e.Err).Msg("property repo: failed to read property snapshots")
				helper.BlockingWrite(ctx, ch, PropertyEvent{Err: e.Err})
				return e.Err
			}

			return helper.BlockingWrite(ctx, ch, r.toEvent(e.Docs))
		})
	}()

	return utils.Coalesce(ctx, ch)
}

func (r PropertyRepository) toEvent(docs []database.Doc) PropertyEvent {
	pe := PropertyEvent{
		Properties: make([]model.Property, 0, len(docs)),
		Rejected:   []model.Rejection{},
	}

	for _, doc := range docs {
		result := r.normalizer.Property(doc.ID, doc.Data)
		if len(result.Warnings) > 0 {
			log.Debug().Strs("warnings", result.Warnings).Msgf("property repo: property %s kept as stored", doc.ID)
		}
		if !result.Valid {
			log.Warn().Strs("issues", result.Issues).Msgf("property repo: skipping invalid property %s", doc.ID)
			pe.Rejected = append(pe.Rejected, model.Rejection{Id: doc.ID, Issues: result.Issues})
			continue
		}
		pe.Properties = append(pe.Properties, result.Property)
	}

	return pe
}
