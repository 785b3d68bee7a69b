package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
)

type masterRepo[T any] struct {
	s     *Store
	items func() map[uuid.UUID]T
	id    func(T) uuid.UUID
	name  func(T) string
}

func (r *masterRepo[T]) Create(ctx context.Context, item *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.nameTaken(*item) {
		return repo.ErrDuplicate
	}
	r.items()[r.id(*item)] = *item
	return nil
}

func (r *masterRepo[T]) FindAll(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]T, 0, len(r.items()))
	for _, it := range r.items() {
		list = append(list, it)
	}
	sort.Slice(list, func(i, j int) bool { return r.name(list[i]) < r.name(list[j]) })
	return list, nil
}

func (r *masterRepo[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	it, ok := r.items()[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &it, nil
}

func (r *masterRepo[T]) Update(ctx context.Context, item *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.items()[r.id(*item)]; !ok {
		return repo.ErrNotFound
	}
	if r.nameTaken(*item) {
		return repo.ErrDuplicate
	}
	r.items()[r.id(*item)] = *item
	return nil
}

func (r *masterRepo[T]) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.items()[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.items(), id)
	return nil
}

func (r *masterRepo[T]) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.items())), nil
}

func (r *masterRepo[T]) nameTaken(item T) bool {
	for id, it := range r.items() {
		if id != r.id(item) && strings.EqualFold(r.name(it), r.name(item)) {
			return true
		}
	}
	return false
}
