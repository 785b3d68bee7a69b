package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/service"
)

func buildSheet(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

var mahasiswaHeader = []interface{}{"nama_lengkap", "email", "nim", "password_default", "prodi", "dpl_email"}

func TestUser_CreateAndList(t *testing.T) {
	env := setup(t)
	admin := env.token(t, env.createUser(t, model.RoleLPPM, "admin@kampus.ac.id", "Admin", ""))

	tests := []httpTest{
		{name: "mahasiswa without nim", body: map[string]string{
			"email": "a@kampus.ac.id", "password": "rahasia", "full_name": "A", "role": "mahasiswa",
		}, wantCode: http.StatusBadRequest},
		{name: "unknown prodi", body: map[string]interface{}{
			"email": "b@kampus.ac.id", "password": "rahasia", "full_name": "B", "role": "dpl", "prodi_id": uuid.New(),
		}, wantCode: http.StatusNotFound},
		{name: "mahasiswa", body: map[string]string{
			"email": "c@kampus.ac.id", "password": "rahasia", "full_name": "Citra", "role": "mahasiswa", "nim": "2201003",
		}, wantCode: http.StatusCreated},
		{name: "dpl", body: map[string]string{
			"email": "d@kampus.ac.id", "password": "rahasia", "full_name": "Dedi", "role": "dpl",
		}, wantCode: http.StatusCreated},
		{name: "duplicate email", body: map[string]string{
			"email": "D@kampus.ac.id", "password": "rahasia", "full_name": "Dedi", "role": "dpl",
		}, wantCode: http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/v1/users", admin, tt.body)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
		})
	}

	resp := env.do(t, http.MethodGet, "/api/v1/users?role=dpl", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[model.PaginationData[model.UserResponse]](t, resp).Data
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Dedi", page.Items[0].FullName)
	assert.EqualValues(t, 1, page.Meta.Total)

	resp = env.do(t, http.MethodGet, "/api/v1/users?role=tamu", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUser_Delete(t *testing.T) {
	env := setup(t)
	adminUser := env.createUser(t, model.RoleLPPM, "admin@kampus.ac.id", "Admin", "")
	admin := env.token(t, adminUser)
	dpl := env.createUser(t, model.RoleDPL, "dpl@kampus.ac.id", "Dr. Siti", "")
	ketua := env.createUser(t, model.RoleMahasiswa, "ketua@kampus.ac.id", "Budi", "2201001")
	kosong := env.createUser(t, model.RoleMahasiswa, "kosong@kampus.ac.id", "Eka", "2201002")

	k := env.createKelompok(t, ketua, &dpl)
	require.NoError(t, env.repos.Laporan.Create(context.Background(), &model.Laporan{
		KelompokID: k.ID,
		Status:     model.StatusMenunggu,
		LaporanContent: model.LaporanContent{
			JudulKegiatan: "Penyuluhan", TanggalKegiatan: time.Now(),
		},
	}))
	emptyGroup := env.createKelompok(t, kosong, nil)

	tests := []httpTest{
		{name: "self", path: "/api/v1/users/" + adminUser.ID.String(), wantCode: http.StatusForbidden},
		{name: "dpl still supervising", path: "/api/v1/users/" + dpl.ID.String(), wantCode: http.StatusConflict},
		{name: "leader with reports", path: "/api/v1/users/" + ketua.ID.String(), wantCode: http.StatusConflict},
		{name: "leader of empty group", path: "/api/v1/users/" + kosong.ID.String(), wantCode: http.StatusOK},
		{name: "unknown", path: "/api/v1/users/" + uuid.NewString(), wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodDelete, tt.path, admin, nil)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
		})
	}

	_, err := env.repos.Kelompok.FindByID(context.Background(), emptyGroup.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

// brokenLeaderLookup fails every leader lookup with a storage error.
type brokenLeaderLookup struct {
	repo.KelompokRepository
}

func (brokenLeaderLookup) FindByKetuaID(context.Context, uuid.UUID) (*model.Kelompok, error) {
	return nil, errors.New("koneksi terputus")
}

func TestUser_DeleteStopsWhenGroupLookupFails(t *testing.T) {
	env := setup(t)
	ketua := env.createUser(t, model.RoleMahasiswa, "ketua@kampus.ac.id", "Budi", "2201001")

	svc := service.NewUserService(env.repos.Users, env.repos.Prodi,
		brokenLeaderLookup{env.repos.Kelompok}, env.repos.Laporan)
	app := fiber.New()
	app.Delete("/users/:id", svc.DeleteUser)
	env.app = app

	resp := env.do(t, http.MethodDelete, "/users/"+ketua.ID.String(), "", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	_, err := env.repos.Users.FindByID(context.Background(), ketua.ID)
	assert.NoError(t, err)
}

func TestUser_ImportTemplate(t *testing.T) {
	env := setup(t)
	admin := env.token(t, env.createUser(t, model.RoleLPPM, "admin@kampus.ac.id", "Admin", ""))

	resp := env.do(t, http.MethodGet, "/api/v1/users/import/template?role=dpl", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "template_import_dpl.xlsx")
	assert.NotEmpty(t, readBody(t, resp))

	resp = env.do(t, http.MethodGet, "/api/v1/users/import/template?role=lppm", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUser_ImportMahasiswa(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	admin := env.token(t, env.createUser(t, model.RoleLPPM, "admin@kampus.ac.id", "Admin", ""))
	dpl := env.createUser(t, model.RoleDPL, "dpl@kampus.ac.id", "Dr. Siti", "")
	env.createUser(t, model.RoleMahasiswa, "lama@kampus.ac.id", "Lama", "2100001")
	prodi := model.ProgramStudi{ID: uuid.New(), Name: "Pendidikan Agama Islam"}
	require.NoError(t, env.repos.Prodi.Create(ctx, &prodi))

	sheet := buildSheet(t, [][]interface{}{
		mahasiswaHeader,
		{"Budi", "budi@kampus.ac.id", "2201001", "rahasia123", "pendidikan agama islam", "DPL@kampus.ac.id"},
		{"", "", "", "", "", ""},
		{"Lama", "lama@kampus.ac.id", "2100001", "rahasia123", "Pendidikan Agama Islam", "dpl@kampus.ac.id"},
		{"Cici", "cici@kampus.ac.id", "2201002", "rahasia123", "Teknik", "dpl@kampus.ac.id"},
		{"Dodi", "dodi@kampus.ac.id", "2201003", "rahasia123", "Pendidikan Agama Islam", "lain@kampus.ac.id"},
	})

	resp := env.doMultipart(t, http.MethodPost, "/api/v1/users/import", admin,
		map[string][]string{"role": {"mahasiswa"}},
		upload{field: "file", name: "mahasiswa.xlsx", content: sheet})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[model.ImportResult](t, resp).Data
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 3, result.ErrorCount)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "Baris 4")
	assert.Contains(t, result.Errors[1], "prodi")
	assert.Contains(t, result.Errors[2], "DPL")

	budi, err := env.repos.Users.FindByEmail(ctx, "budi@kampus.ac.id")
	require.NoError(t, err)
	k, err := env.repos.Kelompok.FindByKetuaID(ctx, budi.ID)
	require.NoError(t, err)
	require.NotNil(t, k.DPLID)
	assert.Equal(t, dpl.ID, *k.DPLID)
	assert.Empty(t, k.Anggota)
}

func TestUser_ImportRejectsBadHeader(t *testing.T) {
	env := setup(t)
	admin := env.token(t, env.createUser(t, model.RoleLPPM, "admin@kampus.ac.id", "Admin", ""))

	sheet := buildSheet(t, [][]interface{}{
		{"nama_lengkap", "email"},
		{"Budi", "budi@kampus.ac.id"},
	})
	resp := env.doMultipart(t, http.MethodPost, "/api/v1/users/import", admin,
		map[string][]string{"role": {"dpl"}},
		upload{field: "file", name: "dpl.xlsx", content: sheet})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	res := decode[any](t, resp)
	assert.False(t, res.Success)
}

type failingKelompokRepo struct {
	repo.KelompokRepository
}

func (failingKelompokRepo) Create(context.Context, *model.Kelompok) error {
	return errors.New("database sibuk")
}

func TestUser_ImportRollsBackUserWhenGroupFails(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	env.createUser(t, model.RoleDPL, "dpl@kampus.ac.id", "Dr. Siti", "")
	prodi := model.ProgramStudi{ID: uuid.New(), Name: "Ekonomi Syariah"}
	require.NoError(t, env.repos.Prodi.Create(ctx, &prodi))

	svc := service.NewUserService(env.repos.Users, env.repos.Prodi,
		failingKelompokRepo{env.repos.Kelompok}, env.repos.Laporan)
	app := fiber.New()
	app.Post("/import", svc.ImportUsers)
	env.app = app

	sheet := buildSheet(t, [][]interface{}{
		mahasiswaHeader,
		{"Budi", "budi@kampus.ac.id", "2201001", "rahasia123", "Ekonomi Syariah", "dpl@kampus.ac.id"},
	})
	resp := env.doMultipart(t, http.MethodPost, "/import", "",
		map[string][]string{"role": {"mahasiswa"}},
		upload{field: "file", name: "mahasiswa.xlsx", content: sheet})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	result := decode[model.ImportResult](t, resp).Data
	assert.Equal(t, 0, result.SuccessCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "gagal membuat kelompok")

	_, err := env.repos.Users.FindByEmail(ctx, "budi@kampus.ac.id")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}
