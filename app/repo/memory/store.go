// Package memory keeps every repository in process memory. It backs the
// STORAGE=memory mode and the handler tests.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
)

type Store struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]model.User
	blacklist map[string]model.BlacklistedToken
	prodi     map[uuid.UUID]model.ProgramStudi
	bidang    map[uuid.UUID]model.BidangPenelitian
	kelompok  map[uuid.UUID]model.Kelompok
	laporan   map[uuid.UUID]model.Laporan
	nilai     map[uuid.UUID]model.Nilai
}

func NewStore() *Store {
	return &Store{
		users:     make(map[uuid.UUID]model.User),
		blacklist: make(map[string]model.BlacklistedToken),
		prodi:     make(map[uuid.UUID]model.ProgramStudi),
		bidang:    make(map[uuid.UUID]model.BidangPenelitian),
		kelompok:  make(map[uuid.UUID]model.Kelompok),
		laporan:   make(map[uuid.UUID]model.Laporan),
		nilai:     make(map[uuid.UUID]model.Nilai),
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() *repo.Repositories {
	return &repo.Repositories{
		Users: &UserRepo{s},
		Prodi: &masterRepo[model.ProgramStudi]{
			s:     s,
			items: func() map[uuid.UUID]model.ProgramStudi { return s.prodi },
			id:    func(p model.ProgramStudi) uuid.UUID { return p.ID },
			name:  func(p model.ProgramStudi) string { return p.Name },
		},
		Bidang: &masterRepo[model.BidangPenelitian]{
			s:     s,
			items: func() map[uuid.UUID]model.BidangPenelitian { return s.bidang },
			id:    func(b model.BidangPenelitian) uuid.UUID { return b.ID },
			name:  func(b model.BidangPenelitian) string { return b.Name },
		},
		Kelompok: &KelompokRepo{s},
		Laporan:  &LaporanRepo{s},
		Nilai:    &NilaiRepo{s},
	}
}

// expandUser attaches the prodi relation; callers hold the lock.
func (s *Store) expandUser(u model.User) model.User {
	if u.ProdiID != nil {
		if p, ok := s.prodi[*u.ProdiID]; ok {
			u.Prodi = &p
		}
	}
	return u
}

func (s *Store) expandKelompok(k model.Kelompok) model.Kelompok {
	if u, ok := s.users[k.KetuaID]; ok {
		u = s.expandUser(u)
		k.Ketua = &u
	}
	if k.DPLID != nil {
		if u, ok := s.users[*k.DPLID]; ok {
			u = s.expandUser(u)
			k.DPL = &u
		}
	}
	anggota := make([]model.Anggota, len(k.Anggota))
	copy(anggota, k.Anggota)
	k.Anggota = anggota
	return k
}

func (s *Store) expandLaporan(l model.Laporan) model.Laporan {
	if k, ok := s.kelompok[l.KelompokID]; ok {
		k = s.expandKelompok(k)
		l.Kelompok = &k
	}
	if l.BidangID != nil {
		if b, ok := s.bidang[*l.BidangID]; ok {
			l.Bidang = &b
		}
	}
	l.DokumenPendukung = append([]model.Attachment{}, l.DokumenPendukung...)
	l.MahasiswaTerlibat = append([]string{}, l.MahasiswaTerlibat...)
	return l
}
