package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
)

type LaporanRepo struct {
	s *Store
}

func (r *LaporanRepo) Create(ctx context.Context, l *model.Laporan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.DokumenPendukung == nil {
		l.DokumenPendukung = []model.Attachment{}
	}
	if l.MahasiswaTerlibat == nil {
		l.MahasiswaTerlibat = []string{}
	}
	l.MongoID = primitive.NewObjectID().Hex()
	now := time.Now()
	l.CreatedAt, l.UpdatedAt = now, now

	r.s.laporan[l.ID] = detach(*l)
	return nil
}

func (r *LaporanRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Laporan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.laporan[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	l = r.s.expandLaporan(l)
	return &l, nil
}

func (r *LaporanRepo) FindAll(ctx context.Context, f model.LaporanFilter) ([]model.Laporan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := []model.Laporan{}
	for _, l := range r.s.laporan {
		if f.KelompokID != nil && l.KelompokID != *f.KelompokID {
			continue
		}
		if f.DPLID != nil {
			k, ok := r.s.kelompok[l.KelompokID]
			if !ok || k.DPLID == nil || *k.DPLID != *f.DPLID {
				continue
			}
		}
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, l.Status) {
			continue
		}
		if f.Since != nil && l.CreatedAt.Before(*f.Since) {
			continue
		}
		list = append(list, r.s.expandLaporan(l))
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return list, nil
}

func (r *LaporanRepo) Update(ctx context.Context, l *model.Laporan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.laporan[l.ID]
	if !ok {
		return repo.ErrNotFound
	}
	l.UpdatedAt = time.Now()

	updated := detach(*l)
	updated.KelompokID = current.KelompokID
	updated.MongoID = current.MongoID
	updated.CreatedAt = current.CreatedAt
	r.s.laporan[l.ID] = updated
	return nil
}

func (r *LaporanRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.laporan[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.laporan, id)
	return nil
}

// detach drops relations and copies slices so callers cannot alias stored state.
func detach(l model.Laporan) model.Laporan {
	l.Kelompok, l.Bidang = nil, nil
	l.DokumenPendukung = append([]model.Attachment{}, l.DokumenPendukung...)
	l.MahasiswaTerlibat = append([]string{}, l.MahasiswaTerlibat...)
	return l
}

func hasStatus(statuses []model.LaporanStatus, s model.LaporanStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}
