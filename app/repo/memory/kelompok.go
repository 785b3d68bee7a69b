package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
)

type KelompokRepo struct {
	s *Store
}

func (r *KelompokRepo) Create(ctx context.Context, k *model.Kelompok) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.kelompok {
		if existing.KetuaID == k.KetuaID {
			return repo.ErrDuplicate
		}
	}
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	if k.Anggota == nil {
		k.Anggota = datatypes.JSONSlice[model.Anggota]{}
	}
	now := time.Now()
	k.CreatedAt, k.UpdatedAt = now, now

	stored := *k
	stored.Ketua, stored.DPL = nil, nil
	stored.Anggota = append(datatypes.JSONSlice[model.Anggota]{}, k.Anggota...)
	r.s.kelompok[k.ID] = stored
	return nil
}

func (r *KelompokRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Kelompok, error) {
	return r.findOne(ctx, func(k model.Kelompok) bool { return k.ID == id })
}

func (r *KelompokRepo) FindByKetuaID(ctx context.Context, ketuaID uuid.UUID) (*model.Kelompok, error) {
	return r.findOne(ctx, func(k model.Kelompok) bool { return k.KetuaID == ketuaID })
}

func (r *KelompokRepo) FindByMemberNIM(ctx context.Context, nim string) (*model.Kelompok, error) {
	return r.findOne(ctx, func(k model.Kelompok) bool { return k.HasMember(nim) })
}

// findOne matches against the expanded group so leader fields are visible.
func (r *KelompokRepo) findOne(ctx context.Context, match func(model.Kelompok) bool) (*model.Kelompok, error) {
	list, err := r.find(ctx, match)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, repo.ErrNotFound
	}
	return &list[0], nil
}

func (r *KelompokRepo) find(ctx context.Context, match func(model.Kelompok) bool) ([]model.Kelompok, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var list []model.Kelompok
	for _, k := range r.s.kelompok {
		k = r.s.expandKelompok(k)
		if match(k) {
			list = append(list, k)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (r *KelompokRepo) FindAll(ctx context.Context) ([]model.Kelompok, error) {
	return r.find(ctx, func(model.Kelompok) bool { return true })
}

func (r *KelompokRepo) FindByDPL(ctx context.Context, dplID uuid.UUID) ([]model.Kelompok, error) {
	return r.find(ctx, func(k model.Kelompok) bool { return k.DPLID != nil && *k.DPLID == dplID })
}

func (r *KelompokRepo) UpdateAnggota(ctx context.Context, id uuid.UUID, anggota []model.Anggota) error {
	return r.update(ctx, id, func(k *model.Kelompok) {
		k.Anggota = append(datatypes.JSONSlice[model.Anggota]{}, anggota...)
	})
}

func (r *KelompokRepo) AssignDPL(ctx context.Context, id uuid.UUID, dplID uuid.UUID) error {
	return r.update(ctx, id, func(k *model.Kelompok) {
		k.DPLID = &dplID
	})
}

func (r *KelompokRepo) update(ctx context.Context, id uuid.UUID, apply func(*model.Kelompok)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k, ok := r.s.kelompok[id]
	if !ok {
		return repo.ErrNotFound
	}
	apply(&k)
	k.UpdatedAt = time.Now()
	r.s.kelompok[id] = k
	return nil
}

func (r *KelompokRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.kelompok[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.kelompok, id)
	return nil
}
