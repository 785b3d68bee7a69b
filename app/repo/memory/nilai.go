package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
)

type NilaiRepo struct {
	s *Store
}

func (r *NilaiRepo) FindByKelompok(ctx context.Context, kelompokID uuid.UUID) ([]model.Nilai, error) {
	list, err := r.filter(ctx, func(n model.Nilai) bool { return n.KelompokID == kelompokID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].MahasiswaNama < list[j].MahasiswaNama })
	return list, nil
}

func (r *NilaiRepo) FindAll(ctx context.Context) ([]model.Nilai, error) {
	list, err := r.filter(ctx, func(model.Nilai) bool { return true })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (r *NilaiRepo) filter(ctx context.Context, match func(model.Nilai) bool) ([]model.Nilai, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := []model.Nilai{}
	for _, n := range r.s.nilai {
		if match(n) {
			list = append(list, n)
		}
	}
	return list, nil
}

func (r *NilaiRepo) Create(ctx context.Context, n *model.Nilai) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.nilai {
		if existing.KelompokID == n.KelompokID && existing.MahasiswaNIM == n.MahasiswaNIM {
			return repo.ErrDuplicate
		}
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	now := time.Now()
	n.CreatedAt, n.UpdatedAt = now, now
	r.s.nilai[n.ID] = *n
	return nil
}

func (r *NilaiRepo) Update(ctx context.Context, n *model.Nilai) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.nilai[n.ID]
	if !ok {
		return repo.ErrNotFound
	}
	current.MahasiswaNama = n.MahasiswaNama
	current.DPLID = n.DPLID
	current.NilaiAkhir = n.NilaiAkhir
	current.Catatan = n.Catatan
	current.UpdatedAt = time.Now()
	r.s.nilai[n.ID] = current
	return nil
}
