package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/service"
)

type laporanFixture struct {
	env      *testEnv
	kelompok model.Kelompok
	bidang   model.BidangPenelitian
	ketua    string
	dpl      string
	otherDPL string
	otherMhs string
	admin    string
	dplUser  model.User
}

func newLaporanFixture(t *testing.T) *laporanFixture {
	t.Helper()
	env := setup(t)
	dpl := env.createUser(t, model.RoleDPL, "dpl@kampus.ac.id", "Dr. Siti", "")
	other := env.createUser(t, model.RoleDPL, "dpl2@kampus.ac.id", "Dr. Rudi", "")
	ketua := env.createUser(t, model.RoleMahasiswa, "ketua@kampus.ac.id", "Budi", "2201001")
	mhs := env.createUser(t, model.RoleMahasiswa, "lain@kampus.ac.id", "Lain", "2201009")
	admin := env.createUser(t, model.RoleLPPM, "admin@kampus.ac.id", "Admin", "")

	k := env.createKelompok(t, ketua, &dpl, model.Anggota{Nama: "Ani", NIM: "2201002", Prodi: "PAI"})
	bidang := model.BidangPenelitian{ID: uuid.New(), Name: "Pendidikan"}
	require.NoError(t, env.repos.Bidang.Create(context.Background(), &bidang))

	return &laporanFixture{
		env:      env,
		kelompok: k,
		bidang:   bidang,
		ketua:    env.token(t, ketua),
		dpl:      env.token(t, dpl),
		otherDPL: env.token(t, other),
		otherMhs: env.token(t, mhs),
		admin:    env.token(t, admin),
		dplUser:  dpl,
	}
}

func (f *laporanFixture) fields(judul string, terlibat ...string) map[string][]string {
	return map[string][]string{
		"judul_kegiatan":     {judul},
		"tanggal_kegiatan":   {"2025-03-07"},
		"tempat_pelaksanaan": {"Desa Sukamaju"},
		"deskripsi_kegiatan": {"<p>Penyuluhan <b>gizi</b> warga</p>"},
		"bidang_penelitian":  {f.bidang.ID.String()},
		"mahasiswa_terlibat": terlibat,
	}
}

func (f *laporanFixture) create(t *testing.T, judul string) model.Laporan {
	t.Helper()
	resp := f.env.doMultipart(t, http.MethodPost, "/api/v1/laporan", f.ketua, f.fields(judul, "Budi", "Ani"),
		upload{field: "dokumen_pendukung", name: "foto kegiatan.jpg", content: []byte("jpeg")})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[model.Laporan](t, resp).Data
}

func TestTerlibatNames(t *testing.T) {
	k := model.Kelompok{
		Ketua:   &model.User{FullName: "Budi"},
		Anggota: []model.Anggota{{Nama: "Ani", NIM: "1"}},
	}

	got, err := service.TerlibatNames([]string{" Ani ", "Budi", "Ani", ""}, k)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ani", "Budi"}, got)

	got, err = service.TerlibatNames([]string{`["Budi","Ani"]`}, k)
	require.NoError(t, err)
	assert.Equal(t, []string{"Budi", "Ani"}, got)

	_, err = service.TerlibatNames([]string{"Zaki"}, k)
	assert.Error(t, err)
}

func TestLaporan_CreateNotifiesDPL(t *testing.T) {
	f := newLaporanFixture(t)

	l := f.create(t, "Penyuluhan Kesehatan")
	assert.Equal(t, model.StatusMenunggu, l.Status)
	assert.Equal(t, []string{"Budi", "Ani"}, l.MahasiswaTerlibat)
	require.Len(t, l.DokumenPendukung, 1)
	assert.Equal(t, "foto kegiatan.jpg", l.DokumenPendukung[0].FileName)
	assert.Equal(t, ".jpg", l.DokumenPendukung[0].FileType)
	assert.Equal(t, "2025-03-07", l.TanggalKegiatan.Format("2006-01-02"))

	f.env.notifier.Wait()
	sent := f.env.mailer.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "dpl@kampus.ac.id", sent[0].To.Address)
	assert.Contains(t, sent[0].Text, "Penyuluhan Kesehatan")

	// the stored file is served from its URL
	resp := f.env.do(t, http.MethodGet, l.DokumenPendukung[0].FileURL, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "jpeg", string(readBody(t, resp)))

	resp = f.env.do(t, http.MethodGet, "/api/v1/files/..%2Fsecret", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLaporan_CreateValidation(t *testing.T) {
	f := newLaporanFixture(t)

	missingJudul := f.fields("", "Budi")
	badBidang := f.fields("Kegiatan", "Budi")
	badBidang["bidang_penelitian"] = []string{uuid.NewString()}
	malformedBidang := f.fields("Kegiatan", "Budi")
	malformedBidang["bidang_penelitian"] = []string{"bukan-uuid"}
	badDate := f.fields("Kegiatan", "Budi")
	badDate["tanggal_kegiatan"] = []string{"07/03/2025"}

	tests := []struct {
		name   string
		token  string
		fields map[string][]string
		want   int
	}{
		{"missing judul", f.ketua, missingJudul, http.StatusBadRequest},
		{"stranger in terlibat", f.ketua, f.fields("Kegiatan", "Zaki"), http.StatusBadRequest},
		{"unknown bidang", f.ketua, badBidang, http.StatusBadRequest},
		{"malformed bidang", f.ketua, malformedBidang, http.StatusBadRequest},
		{"bad date", f.ketua, badDate, http.StatusBadRequest},
		{"student without group", f.otherMhs, f.fields("Kegiatan"), http.StatusNotFound},
		{"dpl cannot create", f.dpl, f.fields("Kegiatan"), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.env.doMultipart(t, http.MethodPost, "/api/v1/laporan", tt.token, tt.fields)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestLaporan_ListIsScopedByRole(t *testing.T) {
	f := newLaporanFixture(t)
	f.create(t, "Kegiatan Satu")

	tests := []struct {
		name  string
		token string
		path  string
		want  int
	}{
		{"leader", f.ketua, "/api/v1/laporan", 1},
		{"student without group", f.otherMhs, "/api/v1/laporan", 0},
		{"group dpl", f.dpl, "/api/v1/laporan", 1},
		{"other dpl", f.otherDPL, "/api/v1/laporan", 0},
		{"lppm", f.admin, "/api/v1/laporan", 1},
		{"status filter", f.admin, "/api/v1/laporan?status=Disetujui", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.env.do(t, http.MethodGet, tt.path, tt.token, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Len(t, decode[[]model.LaporanListItem](t, resp).Data, tt.want)
		})
	}

	resp := f.env.do(t, http.MethodGet, "/api/v1/laporan?status=Selesai", f.admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLaporan_Detail(t *testing.T) {
	f := newLaporanFixture(t)
	l := f.create(t, "Kegiatan Satu")
	path := "/api/v1/laporan/" + l.ID.String()

	resp := f.env.do(t, http.MethodGet, path, f.dpl, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[model.Laporan](t, resp).Data
	require.NotNil(t, got.Bidang)
	assert.Equal(t, "Pendidikan", got.Bidang.Name)
	require.NotNil(t, got.Kelompok)
	require.NotNil(t, got.Kelompok.Ketua)
	assert.Equal(t, "Budi", got.Kelompok.Ketua.FullName)

	resp = f.env.do(t, http.MethodGet, path, f.otherDPL, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.env.do(t, http.MethodGet, "/api/v1/laporan/"+uuid.NewString(), f.admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLaporan_ReviewCycle(t *testing.T) {
	f := newLaporanFixture(t)
	l := f.create(t, "Penyuluhan Kesehatan")
	path := "/api/v1/laporan/" + l.ID.String()

	resp := f.env.do(t, http.MethodPost, path+"/review", f.dpl, model.ReviewRequest{Status: model.StatusRevisi})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.env.do(t, http.MethodPost, path+"/review", f.dpl, model.ReviewRequest{Status: model.StatusMenunggu, CatatanDPL: "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.env.do(t, http.MethodPost, path+"/review", f.otherDPL, model.ReviewRequest{Status: model.StatusDisetujui})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.env.do(t, http.MethodPost, path+"/review", f.dpl, model.ReviewRequest{Status: model.StatusRevisi, CatatanDPL: "Lengkapi foto"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reviewed := decode[model.Laporan](t, resp).Data
	assert.Equal(t, model.StatusRevisi, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, f.dplUser.ID, *reviewed.ReviewedBy)

	f.env.notifier.Wait()
	sent := f.env.mailer.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "ketua@kampus.ac.id", sent[1].To.Address)
	assert.Contains(t, sent[1].Text, "Lengkapi foto")

	// editing sends it back to the DPL, the note stays and files are appended
	resp = f.env.doMultipart(t, http.MethodPut, path, f.ketua, f.fields("Penyuluhan Kesehatan Revisi", "Budi"),
		upload{field: "dokumen_pendukung", name: "daftar-hadir.pdf", content: []byte("%PDF")})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edited := decode[model.Laporan](t, resp).Data
	assert.Equal(t, model.StatusMenunggu, edited.Status)
	assert.Equal(t, "Lengkapi foto", edited.CatatanDPL)
	assert.Equal(t, "Penyuluhan Kesehatan Revisi", edited.JudulKegiatan)
	assert.Len(t, edited.DokumenPendukung, 2)

	resp = f.env.do(t, http.MethodPost, path+"/review", f.dpl, model.ReviewRequest{Status: model.StatusDisetujui})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.env.doMultipart(t, http.MethodPut, path, f.ketua, f.fields("Lagi", "Budi"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.env.do(t, http.MethodDelete, path, f.ketua, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLaporan_Delete(t *testing.T) {
	f := newLaporanFixture(t)
	l := f.create(t, "Kegiatan Dihapus")
	path := "/api/v1/laporan/" + l.ID.String()

	resp := f.env.do(t, http.MethodDelete, path, f.otherMhs, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.env.do(t, http.MethodDelete, path, f.dpl, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.env.do(t, http.MethodDelete, path, f.ketua, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.env.do(t, http.MethodGet, l.DokumenPendukung[0].FileURL, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.env.do(t, http.MethodGet, path, f.ketua, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLaporan_Export(t *testing.T) {
	f := newLaporanFixture(t)
	l := f.create(t, "Penyuluhan Kesehatan")

	tests := []struct {
		ext  string
		mime string
	}{
		{"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"pdf", "application/pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			resp := f.env.do(t, http.MethodGet, "/api/v1/laporan/"+l.ID.String()+"/export."+tt.ext, f.ketua, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.mime, resp.Header.Get(fiber.HeaderContentType))
			assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "laporan-Penyuluhan_Kesehatan."+tt.ext)
			assert.NotEmpty(t, readBody(t, resp))
		})
	}

	resp := f.env.do(t, http.MethodGet, "/api/v1/laporan/"+l.ID.String()+"/export.pdf", f.otherDPL, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDPL_DashboardAndRiwayat(t *testing.T) {
	f := newLaporanFixture(t)
	first := f.create(t, "Satu")
	time.Sleep(2 * time.Millisecond)
	f.create(t, "Dua")

	resp := f.env.do(t, http.MethodPost, "/api/v1/laporan/"+first.ID.String()+"/review", f.dpl,
		model.ReviewRequest{Status: model.StatusDisetujui})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.env.do(t, http.MethodGet, "/api/v1/dpl/dashboard", f.dpl, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d := decode[model.DPLDashboard](t, resp).Data
	assert.Equal(t, 1, d.Menunggu)
	assert.Equal(t, 0, d.Revisi)
	assert.Equal(t, 1, d.Disetujui)
	assert.Equal(t, 1, d.TotalBimbingan)
	require.Len(t, d.PerluTindakan, 1)
	assert.Equal(t, "Dua", d.PerluTindakan[0].JudulKegiatan)

	resp = f.env.do(t, http.MethodGet, "/api/v1/dpl/riwayat", f.dpl, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	riwayat := decode[[]model.LaporanListItem](t, resp).Data
	require.Len(t, riwayat, 1)
	assert.Equal(t, "Satu", riwayat[0].JudulKegiatan)
}

func TestBuildDashboard_LimitsPerluTindakan(t *testing.T) {
	var list []model.Laporan
	for i := 0; i < 7; i++ {
		list = append(list, model.Laporan{Status: model.StatusMenunggu})
	}
	list = append(list, model.Laporan{Status: model.StatusRevisi}, model.Laporan{Status: model.StatusDisetujui})

	d := service.BuildDashboard(list, 3)
	assert.Equal(t, 7, d.Menunggu)
	assert.Equal(t, 1, d.Revisi)
	assert.Equal(t, 1, d.Disetujui)
	assert.Equal(t, 3, d.TotalBimbingan)
	assert.Len(t, d.PerluTindakan, 5)
}
