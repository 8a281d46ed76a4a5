package database

import (
	"context"
	"strings"

	"go-firestore-estate/internal/repository/filter"
)

// Doc is a store-neutral document: its id, slash separated path and field values.
type Doc struct {
	ID   string
	Path string
	Data map[string]interface{}
}

// SnapshotEvent carries the full current set of documents matched by a subscription.
// A non-nil Err is terminal: the channel is closed right after it.
type SnapshotEvent struct {
	Docs []Doc
	Err  error
}

type DataBatch struct {
	Path string
	Data map[string]interface{}
}

type Update struct {
	Path  string
	Value interface{}
}

// Increment is a field value that atomically adds N to the stored number.
type Increment struct {
	N int64
}

type Client interface {
	GetDoc(ctx context.Context, path string) (*Doc, error)
	ListDocs(ctx context.Context, collPath string) ([]Doc, error)
	SetDoc(ctx context.Context, path string, data map[string]interface{}) error
	MergeDoc(ctx context.Context, path string, data map[string]interface{}) error
	UpdateDoc(ctx context.Context, path string, updates []Update) error
	SetDocs(ctx context.Context, data []DataBatch) error
	DeleteDoc(ctx context.Context, path string) error
	// Subscribe listens to a collection (odd number of path segments) or a single
	// document (even number) until ctx is cancelled or an error is delivered.
	Subscribe(ctx context.Context, path string, where []filter.Where) <-chan SnapshotEvent
	Close() error
}

func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

func IsDocPath(path string) bool {
	return len(strings.Split(strings.Trim(path, "/"), "/"))%2 == 0
}

func parent(docPath string) string {
	i := strings.LastIndex(docPath, "/")
	if i < 0 {
		return ""
	}
	return docPath[:i]
}

func lastSegment(path string) string {
	i := strings.LastIndex(path, "/")
	return path[i+1:]
}
