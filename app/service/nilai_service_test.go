package service_test

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/service"
	"github.com/suhendararyadi/lppm-iaipi-mhs/config"
)

func TestReconcileRoster(t *testing.T) {
	nilaiID := uuid.New()
	k := model.Kelompok{
		Ketua: &model.User{FullName: "Budi", NIM: "1"},
		Anggota: []model.Anggota{
			{Nama: "Budi (anggota)", NIM: "1", Prodi: "PAI"},
			{Nama: "Ani", NIM: "2", Prodi: "ES"},
			{Nama: "Tanpa NIM"},
		},
	}
	nilai := []model.Nilai{{ID: nilaiID, MahasiswaNIM: "2", NilaiAkhir: 88.5, Catatan: "baik"}}

	got := service.ReconcileRoster(k, nilai)
	require.Len(t, got, 2)

	assert.Equal(t, "1", got[0].NIM)
	assert.Equal(t, "Budi", got[0].Nama)
	assert.Equal(t, "Ketua", got[0].Prodi)
	assert.Nil(t, got[0].NilaiID)
	assert.Zero(t, got[0].NilaiAkhir)

	assert.Equal(t, "Ani", got[1].Nama)
	require.NotNil(t, got[1].NilaiID)
	assert.Equal(t, nilaiID, *got[1].NilaiID)
	assert.Equal(t, 88.5, got[1].NilaiAkhir)
	assert.Equal(t, "baik", got[1].Catatan)
}

type nilaiFixture struct {
	env      *testEnv
	kelompok model.Kelompok
	dpl      string
	otherDPL string
	ketua    string
	anggota  string
	admin    string
}

func newNilaiFixture(t *testing.T) *nilaiFixture {
	t.Helper()
	env := setup(t)
	dpl := env.createUser(t, model.RoleDPL, "dpl@kampus.ac.id", "Dr. Siti", "")
	other := env.createUser(t, model.RoleDPL, "dpl2@kampus.ac.id", "Dr. Rudi", "")
	ketua := env.createUser(t, model.RoleMahasiswa, "ketua@kampus.ac.id", "Budi", "2201001")
	anggota := env.createUser(t, model.RoleMahasiswa, "ani@kampus.ac.id", "Ani", "2201002")
	admin := env.createUser(t, model.RoleLPPM, "admin@kampus.ac.id", "Admin", "")
	k := env.createKelompok(t, ketua, &dpl,
		model.Anggota{Nama: "Ani", NIM: "2201002", Prodi: "PAI"},
		model.Anggota{Nama: "Cici", NIM: "2201003", Prodi: "ES"},
	)
	return &nilaiFixture{
		env:      env,
		kelompok: k,
		dpl:      env.token(t, dpl),
		otherDPL: env.token(t, other),
		ketua:    env.token(t, ketua),
		anggota:  env.token(t, anggota),
		admin:    env.token(t, admin),
	}
}

func (f *nilaiFixture) path() string {
	return "/api/v1/penilaian/kelompok/" + f.kelompok.ID.String()
}

func TestNilai_SaveAndReconcile(t *testing.T) {
	f := newNilaiFixture(t)

	resp := f.env.do(t, http.MethodGet, f.path(), f.otherDPL, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.env.do(t, http.MethodPut, f.path(), f.dpl, model.SaveNilaiRequest{
		Nilai: []model.NilaiInput{{NIM: "2201002", Nama: "Ani", NilaiAkhir: 120}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	save := model.SaveNilaiRequest{Nilai: []model.NilaiInput{
		{NIM: "2201001", Nama: "Budi", NilaiAkhir: 90},
		{NIM: "2201002", Nama: "Ani", NilaiAkhir: 85, Catatan: "aktif"},
		{NIM: "2201003", Nama: "Cici", NilaiAkhir: 80},
	}}
	resp = f.env.do(t, http.MethodPut, f.path(), f.dpl, save)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[model.SaveNilaiResult](t, resp).Data
	assert.Equal(t, 3, result.Saved)
	assert.Zero(t, result.Failed)

	// a second save updates instead of duplicating
	save.Nilai[2].NilaiAkhir = 78
	resp = f.env.do(t, http.MethodPut, f.path(), f.dpl, save)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	all, err := f.env.repos.Nilai.FindByKelompok(context.Background(), f.kelompok.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	resp = f.env.do(t, http.MethodGet, f.path(), f.dpl, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	roster := decode[model.NilaiKelompokResponse](t, resp).Data.Mahasiswa
	require.Len(t, roster, 3)
	assert.Equal(t, "Ani", roster[0].Nama)
	assert.Equal(t, 85.0, roster[0].NilaiAkhir)
	assert.Equal(t, "aktif", roster[0].Catatan)
	assert.Equal(t, 78.0, roster[1].NilaiAkhir)
	assert.Equal(t, "Budi", roster[2].Nama)
	assert.Equal(t, "Ketua", roster[2].Prodi)
}

func TestNilai_Mine(t *testing.T) {
	f := newNilaiFixture(t)
	resp := f.env.do(t, http.MethodPut, f.path(), f.dpl, model.SaveNilaiRequest{Nilai: []model.NilaiInput{
		{NIM: "2201003", Nama: "Cici", NilaiAkhir: 80},
		{NIM: "2201002", Nama: "Ani", NilaiAkhir: 85},
	}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for name, tok := range map[string]string{"leader": f.ketua, "roster member": f.anggota} {
		t.Run(name, func(t *testing.T) {
			resp := f.env.do(t, http.MethodGet, "/api/v1/nilai/me", tok, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			res := decode[model.NilaiSayaResponse](t, resp).Data
			assert.Equal(t, "Budi", res.NamaKelompok)
			assert.Equal(t, "Dr. Siti", res.NamaDPL)
			require.Len(t, res.Nilai, 2)
			assert.Equal(t, "Ani", res.Nilai[0].MahasiswaNama)
		})
	}

	stranger := f.env.createUser(t, model.RoleMahasiswa, "x@kampus.ac.id", "X", "2209999")
	resp = f.env.do(t, http.MethodGet, "/api/v1/nilai/me", f.env.token(t, stranger), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNilai_LPPMListAndExport(t *testing.T) {
	f := newNilaiFixture(t)
	resp := f.env.do(t, http.MethodPut, f.path(), f.dpl, model.SaveNilaiRequest{Nilai: []model.NilaiInput{
		{NIM: "2201002", Nama: "Ani", NilaiAkhir: 85},
	}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.env.do(t, http.MethodGet, "/api/v1/nilai", f.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]model.Nilai](t, resp).Data, 1)

	tests := []struct {
		name     string
		path     string
		token    string
		wantCode int
		wantFile string
	}{
		{"all groups", "/api/v1/nilai/export.docx", f.admin, http.StatusOK, "rekap-nilai-keseluruhan.docx"},
		{"one group", "/api/v1/nilai/export.docx?kelompok_id=" + f.kelompok.ID.String(), f.admin, http.StatusOK, "nilai-kelompok-Budi.docx"},
		{"bad group id", "/api/v1/nilai/export.docx?kelompok_id=abc", f.admin, http.StatusBadRequest, ""},
		{"dpl export", f.path() + "/export.docx", f.dpl, http.StatusOK, "nilai-kelompok-Budi.docx"},
		{"other dpl export", f.path() + "/export.docx", f.otherDPL, http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.env.do(t, http.MethodGet, tt.path, tt.token, nil)
			require.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.wantFile != "" {
				assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), tt.wantFile)
				assert.NotEmpty(t, readBody(t, resp))
			}
		})
	}
}

// flakyNilaiRepo fails every create for one nim.
type flakyNilaiRepo struct {
	repo.NilaiRepository
	failNIM string
	calls   atomic.Int32
}

func (r *flakyNilaiRepo) Create(ctx context.Context, n *model.Nilai) error {
	r.calls.Add(1)
	if n.MahasiswaNIM == r.failNIM {
		return errors.New("koneksi terputus")
	}
	return r.NilaiRepository.Create(ctx, n)
}

func TestNilaiService_SaveAllReportsPartialFailure(t *testing.T) {
	f := newNilaiFixture(t)
	flaky := &flakyNilaiRepo{NilaiRepository: f.env.repos.Nilai, failNIM: "2201003"}
	svc := service.NewNilaiService(flaky, f.env.repos.Kelompok, f.env.repos.Users)

	inputs := []model.NilaiInput{
		{NIM: "2201001", Nama: "Budi", NilaiAkhir: 90},
		{NIM: "2201002", Nama: "Ani", NilaiAkhir: 85},
		{NIM: "2201003", Nama: "Cici", NilaiAkhir: 80},
	}
	res := svc.SaveAll(context.Background(), f.kelompok, *f.kelompok.DPLID, nil, inputs)
	assert.Equal(t, 2, res.Saved)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Cici")
	assert.EqualValues(t, 3, flaky.calls.Load())

	saved, err := f.env.repos.Nilai.FindByKelompok(context.Background(), f.kelompok.ID)
	require.NoError(t, err)
	assert.Len(t, saved, 2)
}

func TestNilai_SaveRejectsOutsideRoster(t *testing.T) {
	f := newNilaiFixture(t)

	resp := f.env.do(t, http.MethodPut, f.path(), f.dpl, model.SaveNilaiRequest{Nilai: []model.NilaiInput{
		{NIM: "2201002", Nama: "Ani", NilaiAkhir: 85},
		{NIM: "9999999", Nama: "Orang Lain", NilaiAkhir: 70},
	}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(readBody(t, resp)), "9999999")

	saved, err := f.env.repos.Nilai.FindByKelompok(context.Background(), f.kelompok.ID)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestNilai_SaveRepeatedNIMLastWins(t *testing.T) {
	f := newNilaiFixture(t)

	resp := f.env.do(t, http.MethodPut, f.path(), f.dpl, model.SaveNilaiRequest{Nilai: []model.NilaiInput{
		{NIM: "2201002", Nama: "Ani", NilaiAkhir: 60},
		{NIM: "2201003", Nama: "Cici", NilaiAkhir: 75},
		{NIM: "2201002", Nama: "Ani", NilaiAkhir: 88, Catatan: "revisi"},
	}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[model.SaveNilaiResult](t, resp).Data
	assert.Equal(t, 2, result.Saved)
	assert.Zero(t, result.Failed)

	saved, err := f.env.repos.Nilai.FindByKelompok(context.Background(), f.kelompok.ID)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	for _, n := range saved {
		if n.MahasiswaNIM == "2201002" {
			assert.Equal(t, 88.0, n.NilaiAkhir)
			assert.Equal(t, "revisi", n.Catatan)
		}
	}
}

func TestNilaiService_SaveAllSkipsOutsideRoster(t *testing.T) {
	f := newNilaiFixture(t)
	// unset concurrency falls back to the config default
	config.Env.ScoreConcurrency = 0
	svc := service.NewNilaiService(f.env.repos.Nilai, f.env.repos.Kelompok, f.env.repos.Users)

	res := svc.SaveAll(context.Background(), f.kelompok, *f.kelompok.DPLID, nil, []model.NilaiInput{
		{NIM: "2201001", Nama: "Budi", NilaiAkhir: 90},
		{NIM: "9999999", Nama: "Orang Lain", NilaiAkhir: 70},
	})
	assert.Equal(t, 1, res.Saved)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "bukan anggota kelompok")
}
