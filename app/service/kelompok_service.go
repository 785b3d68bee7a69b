package service

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
	"github.com/suhendararyadi/lppm-iaipi-mhs/helper"
)

type KelompokService struct {
	kelompokRepo repo.KelompokRepository
	userRepo     repo.UserRepository
}

func NewKelompokService(kelompokRepo repo.KelompokRepository, userRepo repo.UserRepository) *KelompokService {
	return &KelompokService{kelompokRepo: kelompokRepo, userRepo: userRepo}
}

// ownKelompok returns the caller's group, creating an empty one the first
// time a student asks for it.
func (s *KelompokService) ownKelompok(ctx context.Context, userID uuid.UUID) (*model.Kelompok, error) {
	k, err := s.kelompokRepo.FindByKetuaID(ctx, userID)
	if err == nil {
		return k, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	fresh := model.Kelompok{KetuaID: userID}
	if err := s.kelompokRepo.Create(ctx, &fresh); err != nil && !errors.Is(err, repo.ErrDuplicate) {
		return nil, err
	}
	// duplicate means a concurrent request won the race; read its row
	return s.kelompokRepo.FindByKetuaID(ctx, userID)
}

// GET /api/v1/kelompok/me
func (s *KelompokService) GetMine(c *fiber.Ctx) error {
	k, err := s.ownKelompok(c.UserContext(), currentUserID(c))
	if err != nil {
		return failRepo(c, err, "Kelompok tidak ditemukan", "Gagal memuat kelompok")
	}
	return c.JSON(model.SuccessResponse[model.KelompokResponse]{
		Success: true,
		Data:    model.NewKelompokResponse(*k),
	})
}

// POST /api/v1/kelompok/me/anggota
func (s *KelompokService) AddAnggota(c *fiber.Ctx) error {
	var req model.Anggota
	if err := c.BodyParser(&req); err != nil {
		return invalidInput(c, err)
	}
	req = trimAnggota(req)
	if err := helper.ValidateStruct(req); err != nil {
		return validationFailed(c, err)
	}

	ctx := c.UserContext()
	k, err := s.ownKelompok(ctx, currentUserID(c))
	if err != nil {
		return failRepo(c, err, "Kelompok tidak ditemukan", "Gagal memuat kelompok")
	}

	if k.Ketua != nil && k.Ketua.NIM == req.NIM {
		return fail(c, fiber.StatusBadRequest, "NIM sama dengan NIM ketua kelompok", nil)
	}
	for _, a := range k.Anggota {
		if a.NIM == req.NIM {
			return fail(c, fiber.StatusConflict, "NIM sudah terdaftar sebagai anggota", nil)
		}
	}

	anggota := append([]model.Anggota(k.Anggota), req)
	if err := s.kelompokRepo.UpdateAnggota(ctx, k.ID, anggota); err != nil {
		return failRepo(c, err, "Kelompok tidak ditemukan", "Gagal menambahkan anggota")
	}
	k.Anggota = anggota

	return c.Status(fiber.StatusCreated).JSON(model.SuccessResponse[model.KelompokResponse]{
		Success: true,
		Message: "Anggota berhasil ditambahkan",
		Data:    model.NewKelompokResponse(*k),
	})
}

// DELETE /api/v1/kelompok/me/anggota/:nim
func (s *KelompokService) RemoveAnggota(c *fiber.Ctx) error {
	nim := strings.TrimSpace(c.Params("nim"))

	ctx := c.UserContext()
	k, err := s.ownKelompok(ctx, currentUserID(c))
	if err != nil {
		return failRepo(c, err, "Kelompok tidak ditemukan", "Gagal memuat kelompok")
	}

	anggota := make([]model.Anggota, 0, len(k.Anggota))
	for _, a := range k.Anggota {
		if a.NIM != nim {
			anggota = append(anggota, a)
		}
	}
	if len(anggota) == len(k.Anggota) {
		return fail(c, fiber.StatusNotFound, "Anggota tidak ditemukan", nil)
	}

	if err := s.kelompokRepo.UpdateAnggota(ctx, k.ID, anggota); err != nil {
		return failRepo(c, err, "Kelompok tidak ditemukan", "Gagal menghapus anggota")
	}
	return c.JSON(model.SuccessMessageResponse{Success: true, Message: "Anggota berhasil dihapus"})
}

// PUT /api/v1/kelompok/me/anggota
func (s *KelompokService) ReplaceAnggota(c *fiber.Ctx) error {
	var req model.ReplaceAnggotaRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidInput(c, err)
	}
	for i := range req.Anggota {
		req.Anggota[i] = trimAnggota(req.Anggota[i])
	}
	if err := helper.ValidateStruct(req); err != nil {
		return validationFailed(c, err)
	}

	ctx := c.UserContext()
	k, err := s.ownKelompok(ctx, currentUserID(c))
	if err != nil {
		return failRepo(c, err, "Kelompok tidak ditemukan", "Gagal memuat kelompok")
	}

	ketuaNIM := ""
	if k.Ketua != nil {
		ketuaNIM = k.Ketua.NIM
	}
	anggota := DedupeAnggota(req.Anggota, ketuaNIM)

	if err := s.kelompokRepo.UpdateAnggota(ctx, k.ID, anggota); err != nil {
		return failRepo(c, err, "Kelompok tidak ditemukan", "Gagal menyimpan anggota")
	}
	k.Anggota = anggota

	return c.JSON(model.SuccessResponse[model.KelompokResponse]{
		Success: true,
		Message: "Daftar anggota disimpan",
		Data:    model.NewKelompokResponse(*k),
	})
}

// DedupeAnggota keeps one entry per nim, the last one winning while the
// first position is kept. Entries carrying the leader's nim are dropped.
func DedupeAnggota(list []model.Anggota, ketuaNIM string) []model.Anggota {
	index := make(map[string]int, len(list))
	out := make([]model.Anggota, 0, len(list))
	for _, a := range list {
		if ketuaNIM != "" && a.NIM == ketuaNIM {
			continue
		}
		if i, ok := index[a.NIM]; ok {
			out[i] = a
			continue
		}
		index[a.NIM] = len(out)
		out = append(out, a)
	}
	return out
}

func trimAnggota(a model.Anggota) model.Anggota {
	a.Nama = strings.TrimSpace(a.Nama)
	a.NIM = strings.TrimSpace(a.NIM)
	a.Prodi = strings.TrimSpace(a.Prodi)
	return a
}

// GET /api/v1/kelompok
func (s *KelompokService) List(c *fiber.Ctx) error {
	list, err := s.kelompokRepo.FindAll(c.UserContext())
	if err != nil {
		return failRepo(c, err, "Kelompok tidak ditemukan", "Gagal memuat kelompok")
	}
	return c.JSON(model.SuccessResponse[[]model.KelompokResponse]{
		Success: true,
		Data:    kelompokResponses(list),
	})
}

// PUT /api/v1/kelompok/:id/dpl
func (s *KelompokService) AssignDPL(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "kelompok_id tidak valid", err)
	}

	var req model.AssignDPLRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidInput(c, err)
	}
	if err := helper.ValidateStruct(req); err != nil {
		return validationFailed(c, err)
	}

	ctx := c.UserContext()
	dpl, err := s.userRepo.FindByID(ctx, req.DPLID)
	if err != nil {
		return failRepo(c, err, "DPL tidak ditemukan", "Gagal memuat DPL")
	}
	if dpl.Role != model.RoleDPL {
		return fail(c, fiber.StatusBadRequest, "User yang dipilih bukan DPL", nil)
	}

	if err := s.kelompokRepo.AssignDPL(ctx, id, dpl.ID); err != nil {
		return failRepo(c, err, "Kelompok tidak ditemukan", "Gagal menetapkan DPL")
	}
	return c.JSON(model.SuccessMessageResponse{Success: true, Message: "DPL berhasil ditetapkan"})
}

// GET /api/v1/dpl/kelompok
func (s *KelompokService) ListSupervised(c *fiber.Ctx) error {
	list, err := s.kelompokRepo.FindByDPL(c.UserContext(), currentUserID(c))
	if err != nil {
		return failRepo(c, err, "Kelompok tidak ditemukan", "Gagal memuat kelompok bimbingan")
	}
	return c.JSON(model.SuccessResponse[[]model.KelompokResponse]{
		Success: true,
		Data:    kelompokResponses(list),
	})
}

func kelompokResponses(list []model.Kelompok) []model.KelompokResponse {
	res := make([]model.KelompokResponse, 0, len(list))
	for _, k := range list {
		res = append(res, model.NewKelompokResponse(k))
	}
	return res
}
