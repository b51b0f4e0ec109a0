// Package memory is a process-local implementation of the repositories.
// Records live in slices guarded by a RWMutex, the toy database the agenda
// exercises start from; nothing survives a restart.
package memory

import (
	"sort"
	"strings"
	"sync"

	"agenda/internal/repository"
)

type row[T any] struct {
	item T
	key  string
}

// table is an ordered slice of records addressed by ID.
type table[T any] struct {
	mu   sync.RWMutex
	rows []row[T]
	id   func(*T) string
	name func(*T) string
}

func newTable[T any](id, name func(*T) string) *table[T] {
	return &table[T]{id: id, name: name}
}

// indexOf must be called with mu held.
func (t *table[T]) indexOf(id string) int {
	for i := range t.rows {
		if t.id(&t.rows[i].item) == id {
			return i
		}
	}
	return -1
}

func (t *table[T]) insert(item T, key string) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.indexOf(t.id(&item)) >= 0 {
		var zero T
		return zero, repository.ErrDuplicateID
	}
	t.rows = append(t.rows, row[T]{item: item, key: key})
	return item, nil
}

func (t *table[T]) get(id string) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i := t.indexOf(id)
	if i < 0 {
		var zero T
		return zero, repository.ErrNotFound
	}
	return t.rows[i].item, nil
}

// replace swaps the stored record, letting merge carry over fields the caller
// does not own (creation time, for instance).
func (t *table[T]) replace(item T, key string, merge func(stored, next *T)) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.indexOf(t.id(&item))
	if i < 0 {
		var zero T
		return zero, repository.ErrNotFound
	}
	if merge != nil {
		merge(&t.rows[i].item, &item)
	}
	t.rows[i] = row[T]{item: item, key: key}
	return item, nil
}

// update mutates a stored record in place under the write lock.
func (t *table[T]) update(id string, fn func(*T) error) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var zero T
	i := t.indexOf(id)
	if i < 0 {
		return zero, repository.ErrNotFound
	}
	next := t.rows[i].item
	if err := fn(&next); err != nil {
		return zero, err
	}
	t.rows[i].item = next
	return next, nil
}

func (t *table[T]) remove(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.indexOf(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	return nil
}

// page filters rows whose key contains query and that satisfy match, orders
// them by name then ID and cuts the requested window.
func (t *table[T]) page(query string, match func(*T) bool, pq repository.PageQuery) *repository.PageResult[T] {
	t.mu.RLock()
	hits := make([]T, 0)
	for i := range t.rows {
		r := &t.rows[i]
		if query != "" && !strings.Contains(r.key, query) {
			continue
		}
		if match != nil && !match(&r.item) {
			continue
		}
		hits = append(hits, r.item)
	}
	t.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		ni, nj := strings.ToLower(t.name(&hits[i])), strings.ToLower(t.name(&hits[j]))
		if ni != nj {
			return ni < nj
		}
		return t.id(&hits[i]) < t.id(&hits[j])
	})

	total := len(hits)
	start := min(max(pq.Offset, 0), total)
	end := total
	if pq.Limit > 0 {
		end = min(start+pq.Limit, total)
	}
	return &repository.PageResult[T]{Items: hits[start:end], Total: total}
}

func (t *table[T]) each(fn func(*T)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := range t.rows {
		fn(&t.rows[i].item)
	}
}
