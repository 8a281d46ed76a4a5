package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	ierr "go-firestore-estate/internal/errors"
	"go-firestore-estate/internal/repository/filter"
	"go-firestore-estate/internal/utils"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type FirestoreClient struct {
	*firestore.Client
	writeTimeout time.Duration
}

var _ Client = (*FirestoreClient)(nil)

func New(client *firestore.Client, writeTimeout time.Duration) FirestoreClient {
	if writeTimeout == 0 {
		writeTimeout = time.Second * 120
	}
	return FirestoreClient{
		Client:       client,
		writeTimeout: writeTimeout,
	}
}

func (c FirestoreClient) docRef(path string) (*firestore.DocumentRef, error) {
	ref := c.Client.Doc(path)
	if ref == nil {
		return nil, fmt.Errorf("invalid document path %q", path)
	}
	return ref, nil
}

// Subscribe opens a snapshot listener and re-delivers the full matching set on every change.
// The first listener error that is not a cancellation is forwarded and ends the subscription.
func (c FirestoreClient) Subscribe(ctx context.Context, path string, where []filter.Where) <-chan SnapshotEvent {

	ch := make(chan SnapshotEvent)

	go func() {
		defer close(ch)

		var next func() (SnapshotEvent, bool)
		var stop func()

		if IsDocPath(path) {
			ref, err := c.docRef(path)
			if err != nil {
				deliver(ctx, ch, SnapshotEvent{Err: err})
				return
			}
			it := ref.Snapshots(ctx)
			stop = it.Stop
			next = func() (SnapshotEvent, bool) {
				ds, err := it.Next()
				if err != nil {
					return SnapshotEvent{Err: err}, err == iterator.Done
				}
				docs := []Doc{}
				if ds.Exists() {
					docs = append(docs, toDoc(ds))
				}
				return SnapshotEvent{Docs: docs}, false
			}
		} else {
			query := c.Client.Collection(path).Query
			for _, w := range where {
				query = query.Where(w.Path, w.Op, w.Value)
			}
			it := query.Snapshots(ctx)
			stop = it.Stop
			next = func() (SnapshotEvent, bool) {
				snap, err := it.Next()
				if err != nil {
					return SnapshotEvent{Err: err}, err == iterator.Done
				}
				all, err := snap.Documents.GetAll()
				if err != nil {
					return SnapshotEvent{Err: err}, false
				}
				docs := make([]Doc, 0, len(all))
				for _, ds := range all {
					if ds.Exists() {
						docs = append(docs, toDoc(ds))
					}
				}
				return SnapshotEvent{Docs: docs}, false
			}
		}

		for event := range registerEventListener(ctx, next, stop) {
			if event.Err != nil {
				// The error is not wrapped properly, so errors.Is() does not work
				if isCancellation(event.Err) {
					return
				}
				log.Error().Err(event.Err).Msgf("error reading snapshots of %s", path)
				deliver(ctx, ch, event)
				return
			}

			if !deliver(ctx, ch, event) {
				return
			}
		}
	}()

	return ch
}

func deliver(ctx context.Context, ch chan<- SnapshotEvent, event SnapshotEvent) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- event:
		return true
	}
}

// registerEventListener keeps the listener open until context is cancelled. A reader that falls
// behind receives the latest snapshot once it catches up; intermediate ones are skipped.
func registerEventListener(ctx context.Context, next func() (SnapshotEvent, bool), stop func()) <-chan SnapshotEvent {

	c := make(chan SnapshotEvent)
	go func() {
		defer close(c)
		defer stop()

		for {
			event, done := next()
			if done {
				return
			}

			if !deliver(ctx, c, event) || event.Err != nil {
				return
			}
		}
	}()

	return utils.Coalesce(ctx, c)
}

func isCancellation(err error) bool {
	if status.Code(err) == codes.Canceled {
		return true
	}
	return strings.Contains(err.Error(), "context canceled") || strings.Contains(err.Error(), "context deadline exceeded")
}

func toDoc(ds *firestore.DocumentSnapshot) Doc {
	return Doc{
		ID:   ds.Ref.ID,
		Path: relativePath(ds.Ref.Path),
		Data: ds.Data(),
	}
}

// relativePath strips the "projects/<p>/databases/<d>/documents/" prefix.
func relativePath(full string) string {
	const marker = "/documents/"
	if i := strings.Index(full, marker); i >= 0 {
		return full[i+len(marker):]
	}
	return full
}

// Iterate over all the docs of the given coll
func (c FirestoreClient) ListDocs(ctx context.Context, collPath string) ([]Doc, error) {
	iter := c.Client.Collection(collPath).Documents(ctx)
	defer iter.Stop()

	docs := []Doc{}
	for {
		ds, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				return docs, nil
			}
			return nil, fmt.Errorf("list docs: %w, coll: %s", err, collPath)
		}

		docs = append(docs, toDoc(ds))
	}
}

func (c FirestoreClient) GetDoc(ctx context.Context, path string) (*Doc, error) {
	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	ref, err := c.docRef(path)
	if err != nil {
		return nil, err
	}

	docSnapshot, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ierr.NotFound
		}
		return nil, err
	}

	if !docSnapshot.Exists() {
		return nil, ierr.NotFound
	}

	doc := toDoc(docSnapshot)
	return &doc, nil
}

func (c FirestoreClient) UpdateDoc(ctx context.Context, path string, updates []Update) error {
	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	ref, err := c.docRef(path)
	if err != nil {
		return err
	}

	fu := make([]firestore.Update, 0, len(updates))
	for _, u := range updates {
		fu = append(fu, firestore.Update{Path: u.Path, Value: toFirestoreValue(u.Value)})
	}

	_, err = ref.Update(ctx, fu)
	if status.Code(err) == codes.NotFound {
		return ierr.NotFound
	}
	return err
}

func (c FirestoreClient) SetDoc(ctx context.Context, path string, data map[string]interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	ref, err := c.docRef(path)
	if err != nil {
		return err
	}

	_, err = ref.Set(ctx, toFirestoreData(data))
	return err
}

func (c FirestoreClient) MergeDoc(ctx context.Context, path string, data map[string]interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	ref, err := c.docRef(path)
	if err != nil {
		return err
	}

	_, err = ref.Set(ctx, toFirestoreData(data), firestore.MergeAll)
	return err
}

func (c FirestoreClient) SetDocs(ctx context.Context, data []DataBatch) error {
	if len(data) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	batch := c.Client.Batch()
	for _, item := range data {
		ref, err := c.docRef(item.Path)
		if err != nil {
			return err
		}
		batch.Set(ref, toFirestoreData(item.Data))
	}

	_, err := batch.Commit(ctx)
	return err
}

func (c FirestoreClient) DeleteDoc(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	docRef, err := c.docRef(path)
	if err != nil {
		return err
	}

	colls, err := docRef.Collections(ctx).GetAll()
	if err != nil {
		log.Error().Err(err).Msgf("failed to get all collections of the doc %s", docRef.Path)
		return err
	}

	for _, collRef := range colls {
		// must not be concurrent otherwise subcolls will not be cleaned up due to context cancellation
		c.deleteColl(ctx, collRef)
	}

	_, err = docRef.Delete(ctx)
	return err
}

func (c FirestoreClient) deleteColl(ctx context.Context, collRef *firestore.CollectionRef) {
	// Recursively delete all subcollections
	docs := collRef.Documents(ctx)
	defer docs.Stop()
	for {
		doc, err := docs.Next()
		if err != nil {
			if err != iterator.Done {
				log.Error().Err(err).Msgf("failed to iterate %s", collRef.Path)
			}
			return
		}
		if err := c.DeleteDoc(ctx, relativePath(doc.Ref.Path)); err != nil {
			log.Error().Err(err).Msgf("failed to delete %s", doc.Ref.Path)
		}
	}
}

func (c FirestoreClient) Close() error {
	return c.Client.Close()
}

func toFirestoreData(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = toFirestoreValue(v)
	}
	return out
}

func toFirestoreValue(v interface{}) interface{} {
	if inc, ok := v.(Increment); ok {
		return firestore.Increment(inc.N)
	}
	return v
}
