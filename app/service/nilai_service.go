package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/export"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
	"github.com/suhendararyadi/lppm-iaipi-mhs/config"
	"github.com/suhendararyadi/lppm-iaipi-mhs/helper"
)

var errNotMember = errors.New("bukan anggota kelompok")

type NilaiService struct {
	nilaiRepo    repo.NilaiRepository
	kelompokRepo repo.KelompokRepository
	userRepo     repo.UserRepository
}

func NewNilaiService(nilaiRepo repo.NilaiRepository, kelompokRepo repo.KelompokRepository, userRepo repo.UserRepository) *NilaiService {
	return &NilaiService{nilaiRepo: nilaiRepo, kelompokRepo: kelompokRepo, userRepo: userRepo}
}

// supervised loads the group named by :id and checks the caller is its DPL.
func (s *NilaiService) supervised(c *fiber.Ctx) (*model.Kelompok, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, fail(c, fiber.StatusBadRequest, "kelompok_id tidak valid", err)
	}
	k, err := s.kelompokRepo.FindByID(c.UserContext(), id)
	if err != nil {
		return nil, failRepo(c, err, "Kelompok tidak ditemukan", "Gagal memuat kelompok")
	}
	if k.DPLID == nil || *k.DPLID != currentUserID(c) {
		return nil, fail(c, fiber.StatusForbidden, "Kelompok ini bukan bimbingan Anda", nil)
	}
	return k, nil
}

// ReconcileRoster lists every student of k once, keyed by nim, merged with
// the saved scores. The leader is applied last and wins over a roster entry
// with the same nim.
func ReconcileRoster(k model.Kelompok, nilai []model.Nilai) []model.MahasiswaNilai {
	order := make([]string, 0, len(k.Anggota)+1)
	rows := make(map[string]model.MahasiswaNilai, len(k.Anggota)+1)
	put := func(m model.MahasiswaNilai) {
		if m.NIM == "" {
			return
		}
		if _, ok := rows[m.NIM]; !ok {
			order = append(order, m.NIM)
		}
		rows[m.NIM] = m
	}

	for _, a := range k.Anggota {
		put(model.MahasiswaNilai{NIM: a.NIM, Nama: a.Nama, Prodi: a.Prodi})
	}
	if k.Ketua != nil {
		put(model.MahasiswaNilai{NIM: k.Ketua.NIM, Nama: k.Ketua.FullName, Prodi: k.Ketua.ProdiName("Ketua")})
	}

	byNIM := make(map[string]model.Nilai, len(nilai))
	for _, n := range nilai {
		byNIM[n.MahasiswaNIM] = n
	}

	out := make([]model.MahasiswaNilai, 0, len(order))
	for _, nim := range order {
		m := rows[nim]
		if n, ok := byNIM[nim]; ok {
			id := n.ID
			m.NilaiID = &id
			m.NilaiAkhir = n.NilaiAkhir
			m.Catatan = n.Catatan
		}
		out = append(out, m)
	}
	return out
}

// GET /api/v1/penilaian/kelompok/:id
func (s *NilaiService) GetKelompok(c *fiber.Ctx) error {
	k, err := s.supervised(c)
	if k == nil {
		return err
	}
	nilai, err := s.nilaiRepo.FindByKelompok(c.UserContext(), k.ID)
	if err != nil {
		return failRepo(c, err, "Nilai tidak ditemukan", "Gagal memuat nilai")
	}
	return c.JSON(model.SuccessResponse[model.NilaiKelompokResponse]{
		Success: true,
		Data: model.NilaiKelompokResponse{
			Kelompok:  model.NewKelompokResponse(*k),
			Mahasiswa: ReconcileRoster(*k, nilai),
		},
	})
}

// PUT /api/v1/penilaian/kelompok/:id
func (s *NilaiService) SaveKelompok(c *fiber.Ctx) error {
	var req model.SaveNilaiRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidInput(c, err)
	}
	for i := range req.Nilai {
		req.Nilai[i].NIM = strings.TrimSpace(req.Nilai[i].NIM)
		req.Nilai[i].Nama = strings.TrimSpace(req.Nilai[i].Nama)
	}
	if err := helper.ValidateStruct(req); err != nil {
		return validationFailed(c, err)
	}

	k, err := s.supervised(c)
	if k == nil {
		return err
	}
	if outside := outsideRoster(*k, req.Nilai); len(outside) > 0 {
		return fail(c, fiber.StatusBadRequest, "NIM bukan anggota kelompok: "+strings.Join(outside, ", "), nil)
	}

	ctx := c.UserContext()
	existing, err := s.nilaiRepo.FindByKelompok(ctx, k.ID)
	if err != nil {
		return failRepo(c, err, "Nilai tidak ditemukan", "Gagal memuat nilai")
	}

	result := s.SaveAll(ctx, *k, currentUserID(c), existing, req.Nilai)
	if result.Failed > 0 {
		helper.ReportError("simpan nilai sebagian gagal", errors.New(strings.Join(result.Errors, "; ")),
			map[string]interface{}{"kelompok_id": k.ID.String()})
		return c.Status(fiber.StatusInternalServerError).JSON(model.SuccessResponse[model.SaveNilaiResult]{
			Success: false,
			Message: fmt.Sprintf("%d nilai tersimpan, %d gagal", result.Saved, result.Failed),
			Data:    result,
		})
	}
	return c.JSON(model.SuccessResponse[model.SaveNilaiResult]{
		Success: true,
		Message: "Semua nilai berhasil disimpan",
		Data:    result,
	})
}

// outsideRoster lists the distinct nims in inputs that are not in k.
func outsideRoster(k model.Kelompok, inputs []model.NilaiInput) []string {
	var out []string
	seen := make(map[string]bool)
	for _, in := range inputs {
		if !k.HasMember(in.NIM) && !seen[in.NIM] {
			seen[in.NIM] = true
			out = append(out, in.NIM)
		}
	}
	return out
}

// dedupeByNIM keeps one input per nim. The last entry wins but takes the
// position of the first.
func dedupeByNIM(inputs []model.NilaiInput) []model.NilaiInput {
	pos := make(map[string]int, len(inputs))
	out := make([]model.NilaiInput, 0, len(inputs))
	for _, in := range inputs {
		if i, ok := pos[in.NIM]; ok {
			out[i] = in
			continue
		}
		pos[in.NIM] = len(out)
		out = append(out, in)
	}
	return out
}

// SaveAll creates or updates one score per student of k concurrently. Rows
// are independent; a failed row does not stop or undo the others. Repeated
// nims collapse to their last entry and nims outside the roster fail.
func (s *NilaiService) SaveAll(ctx context.Context, k model.Kelompok, dplID uuid.UUID, existing []model.Nilai, inputs []model.NilaiInput) model.SaveNilaiResult {
	byNIM := make(map[string]model.Nilai, len(existing))
	for _, n := range existing {
		byNIM[n.MahasiswaNIM] = n
	}

	limit := config.Env.ScoreConcurrency
	if limit <= 0 {
		limit = config.DefaultScoreConcurrency
	}

	var (
		mu     sync.Mutex
		result = model.SaveNilaiResult{Errors: []string{}}
	)
	g := new(errgroup.Group)
	g.SetLimit(limit)

	for _, in := range dedupeByNIM(inputs) {
		if !k.HasMember(in.NIM) {
			mu.Lock()
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s (%s): %v", in.Nama, in.NIM, errNotMember))
			mu.Unlock()
			continue
		}
		in := in
		g.Go(func() error {
			n, exists := byNIM[in.NIM]
			n.MahasiswaNama = in.Nama
			n.DPLID = dplID
			n.NilaiAkhir = in.NilaiAkhir
			n.Catatan = in.Catatan

			var err error
			if exists {
				err = s.nilaiRepo.Update(ctx, &n)
			} else {
				n.KelompokID = k.ID
				n.MahasiswaNIM = in.NIM
				err = s.nilaiRepo.Create(ctx, &n)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s (%s): %v", in.Nama, in.NIM, err))
				return nil
			}
			result.Saved++
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(result.Errors)
	return result
}

// GET /api/v1/penilaian/kelompok/:id/export.docx
func (s *NilaiService) ExportKelompok(c *fiber.Ctx) error {
	k, err := s.supervised(c)
	if k == nil {
		return err
	}
	nilai, err := s.nilaiRepo.FindByKelompok(c.UserContext(), k.ID)
	if err != nil {
		return failRepo(c, err, "Nilai tidak ditemukan", "Gagal memuat nilai")
	}
	return s.sendRecap(c, []export.NilaiGroup{{Kelompok: *k, Nilai: nilai}},
		export.Filename("nilai-kelompok", k.KetuaName(), "docx"))
}

// GET /api/v1/nilai/me
func (s *NilaiService) Mine(c *fiber.Ctx) error {
	ctx := c.UserContext()
	k, err := s.ownGroup(ctx, currentUserID(c))
	if err != nil {
		return failRepo(c, err, "Anda belum terdaftar dalam kelompok", "Gagal memuat kelompok")
	}

	nilai, err := s.nilaiRepo.FindByKelompok(ctx, k.ID)
	if err != nil {
		return failRepo(c, err, "Nilai tidak ditemukan", "Gagal memuat nilai")
	}
	sortByNama(nilai)

	return c.JSON(model.SuccessResponse[model.NilaiSayaResponse]{
		Success: true,
		Data: model.NilaiSayaResponse{
			NamaKelompok: k.KetuaName(),
			NamaDPL:      k.DPLName(),
			Nilai:        nilai,
		},
	})
}

// ownGroup finds the group the caller leads, falling back to a roster
// entry carrying the caller's nim.
func (s *NilaiService) ownGroup(ctx context.Context, userID uuid.UUID) (*model.Kelompok, error) {
	k, err := s.kelompokRepo.FindByKetuaID(ctx, userID)
	if err == nil || !errors.Is(err, repo.ErrNotFound) {
		return k, err
	}
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.NIM == "" {
		return nil, repo.ErrNotFound
	}
	return s.kelompokRepo.FindByMemberNIM(ctx, u.NIM)
}

func sortByNama(list []model.Nilai) {
	sort.SliceStable(list, func(i, j int) bool {
		return strings.ToLower(list[i].MahasiswaNama) < strings.ToLower(list[j].MahasiswaNama)
	})
}

// GET /api/v1/nilai
func (s *NilaiService) List(c *fiber.Ctx) error {
	list, err := s.nilaiRepo.FindAll(c.UserContext())
	if err != nil {
		return failRepo(c, err, "Nilai tidak ditemukan", "Gagal memuat nilai")
	}
	if list == nil {
		list = []model.Nilai{}
	}
	return c.JSON(model.SuccessResponse[[]model.Nilai]{Success: true, Data: list})
}

// GET /api/v1/nilai/export.docx?kelompok_id=
func (s *NilaiService) Export(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if raw := c.Query("kelompok_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "kelompok_id tidak valid", err)
		}
		k, err := s.kelompokRepo.FindByID(ctx, id)
		if err != nil {
			return failRepo(c, err, "Kelompok tidak ditemukan", "Gagal memuat kelompok")
		}
		nilai, err := s.nilaiRepo.FindByKelompok(ctx, id)
		if err != nil {
			return failRepo(c, err, "Nilai tidak ditemukan", "Gagal memuat nilai")
		}
		return s.sendRecap(c, []export.NilaiGroup{{Kelompok: *k, Nilai: nilai}},
			export.Filename("nilai-kelompok", k.KetuaName(), "docx"))
	}

	kelompok, err := s.kelompokRepo.FindAll(ctx)
	if err != nil {
		return failRepo(c, err, "Kelompok tidak ditemukan", "Gagal memuat kelompok")
	}
	all, err := s.nilaiRepo.FindAll(ctx)
	if err != nil {
		return failRepo(c, err, "Nilai tidak ditemukan", "Gagal memuat nilai")
	}
	return s.sendRecap(c, GroupNilai(kelompok, all), "rekap-nilai-keseluruhan.docx")
}

// GroupNilai pairs each group with its scores sorted by name.
func GroupNilai(kelompok []model.Kelompok, all []model.Nilai) []export.NilaiGroup {
	byGroup := make(map[uuid.UUID][]model.Nilai, len(kelompok))
	for _, n := range all {
		byGroup[n.KelompokID] = append(byGroup[n.KelompokID], n)
	}
	groups := make([]export.NilaiGroup, 0, len(kelompok))
	for _, k := range kelompok {
		nilai := byGroup[k.ID]
		sortByNama(nilai)
		groups = append(groups, export.NilaiGroup{Kelompok: k, Nilai: nilai})
	}
	return groups
}

func (s *NilaiService) sendRecap(c *fiber.Ctx, groups []export.NilaiGroup, filename string) error {
	var buf bytes.Buffer
	if err := export.RenderDocx(&buf, export.NilaiRecap(groups)); err != nil {
		helper.ReportError("export rekap nilai", err)
		return fail(c, fiber.StatusInternalServerError, "Gagal membuat dokumen", err)
	}
	return sendDocument(c, mimeDocx, filename, buf.Bytes())
}
