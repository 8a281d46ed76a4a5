package database

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	ierr "go-firestore-estate/internal/errors"
	"go-firestore-estate/internal/repository/filter"
	"go-firestore-estate/internal/repository/ops"
)

// MemoryStore keeps documents in process memory. It backs STORE_BACKEND=memory and the tests.
// Subscriptions coalesce bursts of writes but always deliver the latest state, in order.
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[string]map[string]interface{}
	subs    map[int]*memorySub
	nextSub int
}

type memorySub struct {
	path   string
	where  []filter.Where
	notify chan struct{}
	failCh chan error
}

var _ Client = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]interface{}),
		subs: make(map[int]*memorySub),
	}
}

func (m *MemoryStore) GetDoc(ctx context.Context, path string) (*Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.docs[path]
	if !ok {
		return nil, ierr.NotFound
	}
	return &Doc{ID: lastSegment(path), Path: path, Data: copyData(data)}, nil
}

func (m *MemoryStore) ListDocs(ctx context.Context, collPath string) ([]Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.collectLocked(collPath, nil), nil
}

func (m *MemoryStore) SetDoc(ctx context.Context, path string, data map[string]interface{}) error {
	return m.SetDocs(ctx, []DataBatch{{Path: path, Data: data}})
}

func (m *MemoryStore) SetDocs(ctx context.Context, data []DataBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, item := range data {
		if !IsDocPath(item.Path) {
			return fmt.Errorf("invalid document path %q", item.Path)
		}
	}

	m.mu.Lock()
	changed := make([]string, 0, len(data))
	for _, item := range data {
		m.docs[item.Path] = applyFields(nil, item.Data)
		changed = append(changed, item.Path)
	}
	m.mu.Unlock()

	m.notify(changed...)
	return nil
}

func (m *MemoryStore) MergeDoc(ctx context.Context, path string, data map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !IsDocPath(path) {
		return fmt.Errorf("invalid document path %q", path)
	}

	m.mu.Lock()
	m.docs[path] = applyFields(m.docs[path], data)
	m.mu.Unlock()

	m.notify(path)
	return nil
}

func (m *MemoryStore) UpdateDoc(ctx context.Context, path string, updates []Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	current, ok := m.docs[path]
	if !ok {
		m.mu.Unlock()
		return ierr.NotFound
	}
	fields := make(map[string]interface{}, len(updates))
	for _, u := range updates {
		fields[u.Path] = u.Value
	}
	m.docs[path] = applyFields(current, fields)
	m.mu.Unlock()

	m.notify(path)
	return nil
}

func (m *MemoryStore) DeleteDoc(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	changed := []string{}
	for p := range m.docs {
		if p == path || strings.HasPrefix(p, path+"/") {
			delete(m.docs, p)
			changed = append(changed, p)
		}
	}
	m.mu.Unlock()

	m.notify(changed...)
	return nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, path string, where []filter.Where) <-chan SnapshotEvent {
	ch := make(chan SnapshotEvent)
	sub := &memorySub{
		path:   path,
		where:  where,
		notify: make(chan struct{}, 1),
		failCh: make(chan error, 1),
	}
	sub.notify <- struct{}{} // initial snapshot

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = sub
	m.mu.Unlock()

	go func() {
		defer close(ch)
		defer func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case err := <-sub.failCh:
				deliver(ctx, ch, SnapshotEvent{Err: err})
				return
			case <-sub.notify:
				if !deliver(ctx, ch, SnapshotEvent{Docs: m.snapshot(sub)}) {
					return
				}
			}
		}
	}()

	return ch
}

// Fail terminates every live subscription on path with err, the way a listener error would.
func (m *MemoryStore) Fail(path string, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subs {
		if sub.path != path {
			continue
		}
		select {
		case sub.failCh <- err:
		default:
		}
	}
}

// Subscribers returns the number of open subscriptions, mainly for tests.
func (m *MemoryStore) Subscribers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) snapshot(sub *memorySub) []Doc {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if IsDocPath(sub.path) {
		data, ok := m.docs[sub.path]
		if !ok {
			return []Doc{}
		}
		return []Doc{{ID: lastSegment(sub.path), Path: sub.path, Data: copyData(data)}}
	}
	return m.collectLocked(sub.path, sub.where)
}

func (m *MemoryStore) collectLocked(collPath string, where []filter.Where) []Doc {
	docs := []Doc{}
	for p, data := range m.docs {
		if parent(p) != collPath || !matches(data, where) {
			continue
		}
		docs = append(docs, Doc{ID: lastSegment(p), Path: p, Data: copyData(data)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

func (m *MemoryStore) notify(paths ...string) {
	if len(paths) == 0 {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subs {
		for _, p := range paths {
			if p == sub.path || parent(p) == sub.path {
				select {
				case sub.notify <- struct{}{}:
				default:
				}
				break
			}
		}
	}
}

func applyFields(current, fields map[string]interface{}) map[string]interface{} {
	out := copyData(current)
	for k, v := range fields {
		if inc, ok := v.(Increment); ok {
			n, _ := toInt64(out[k])
			out[k] = n + inc.N
			continue
		}
		out[k] = v
	}
	return out
}

func copyData(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func matches(data map[string]interface{}, where []filter.Where) bool {
	for _, w := range where {
		if !compare(data[w.Path], w.Op, w.Value) {
			return false
		}
	}
	return true
}

func compare(got interface{}, op string, want interface{}) bool {
	if gi, ok := toFloat(got); ok {
		if wi, ok := toFloat(want); ok {
			switch op {
			case ops.Equal:
				return gi == wi
			case ops.NotEqual:
				return gi != wi
			case ops.Greater:
				return gi > wi
			case ops.GreaterEqual:
				return gi >= wi
			case ops.Less:
				return gi < wi
			case ops.LessEqual:
				return gi <= wi
			}
			return false
		}
	}

	if gs, ok := got.(string); ok {
		if ws, ok := want.(string); ok {
			switch op {
			case ops.Greater:
				return gs > ws
			case ops.GreaterEqual:
				return gs >= ws
			case ops.Less:
				return gs < ws
			case ops.LessEqual:
				return gs <= ws
			}
		}
	}

	switch op {
	case ops.Equal:
		return reflect.DeepEqual(got, want)
	case ops.NotEqual:
		return !reflect.DeepEqual(got, want)
	}
	return false
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
