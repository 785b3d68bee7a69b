package service

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
	"github.com/suhendararyadi/lppm-iaipi-mhs/helper"
)

// MasterService serves CRUD for a name-only master table.
type MasterService[T any] struct {
	repo  repo.MasterRepository[T]
	label string
	// decode reads and validates the request body, returning the name.
	decode func(c *fiber.Ctx) (string, error)
	// build applies name to base, filling identity when base is new.
	build func(base T, name string) T
}

func NewProdiService(r repo.ProdiRepository) *MasterService[model.ProgramStudi] {
	return &MasterService[model.ProgramStudi]{
		repo:  r,
		label: "Program studi",
		decode: func(c *fiber.Ctx) (string, error) {
			var req model.ProdiRequest
			if err := c.BodyParser(&req); err != nil {
				return "", err
			}
			req.Name = strings.TrimSpace(req.Name)
			return req.Name, helper.ValidateStruct(req)
		},
		build: func(base model.ProgramStudi, name string) model.ProgramStudi {
			if base.ID == uuid.Nil {
				base.ID = uuid.New()
				base.CreatedAt = time.Now()
			}
			base.Name = name
			base.UpdatedAt = time.Now()
			return base
		},
	}
}

func NewBidangService(r repo.BidangRepository) *MasterService[model.BidangPenelitian] {
	return &MasterService[model.BidangPenelitian]{
		repo:  r,
		label: "Bidang penelitian",
		decode: func(c *fiber.Ctx) (string, error) {
			var req model.BidangRequest
			if err := c.BodyParser(&req); err != nil {
				return "", err
			}
			req.Name = strings.TrimSpace(req.Name)
			return req.Name, helper.ValidateStruct(req)
		},
		build: func(base model.BidangPenelitian, name string) model.BidangPenelitian {
			if base.ID == uuid.Nil {
				base.ID = uuid.New()
				base.CreatedAt = time.Now()
			}
			base.Name = name
			base.UpdatedAt = time.Now()
			return base
		},
	}
}

// GET /api/v1/prodi, /api/v1/bidang
func (s *MasterService[T]) List(c *fiber.Ctx) error {
	items, err := s.repo.FindAll(c.UserContext())
	if err != nil {
		return failRepo(c, err, s.label+" tidak ditemukan", "Gagal memuat "+strings.ToLower(s.label))
	}
	if items == nil {
		items = []T{}
	}
	return c.JSON(model.SuccessResponse[[]T]{Success: true, Data: items})
}

// POST /api/v1/prodi, /api/v1/bidang
func (s *MasterService[T]) Create(c *fiber.Ctx) error {
	name, err := s.decode(c)
	if err != nil {
		return validationFailed(c, err)
	}

	var base T
	item := s.build(base, name)
	if err := s.repo.Create(c.UserContext(), &item); err != nil {
		return failRepo(c, err, s.label+" tidak ditemukan", "Gagal menyimpan "+strings.ToLower(s.label))
	}
	return c.Status(fiber.StatusCreated).JSON(model.SuccessResponse[T]{
		Success: true,
		Message: s.label + " ditambahkan",
		Data:    item,
	})
}

// PUT /api/v1/prodi/:id, /api/v1/bidang/:id
func (s *MasterService[T]) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "ID tidak valid", err)
	}
	name, err := s.decode(c)
	if err != nil {
		return validationFailed(c, err)
	}

	existing, err := s.repo.FindByID(c.UserContext(), id)
	if err != nil {
		return failRepo(c, err, s.label+" tidak ditemukan", "Gagal memuat "+strings.ToLower(s.label))
	}

	item := s.build(*existing, name)
	if err := s.repo.Update(c.UserContext(), &item); err != nil {
		return failRepo(c, err, s.label+" tidak ditemukan", "Gagal memperbarui "+strings.ToLower(s.label))
	}
	return c.JSON(model.SuccessMessageResponse{Success: true, Message: s.label + " diperbarui"})
}

// DELETE /api/v1/prodi/:id, /api/v1/bidang/:id
func (s *MasterService[T]) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "ID tidak valid", err)
	}
	if err := s.repo.Delete(c.UserContext(), id); err != nil {
		return failRepo(c, err, s.label+" tidak ditemukan", "Gagal menghapus "+strings.ToLower(s.label))
	}
	return c.JSON(model.SuccessMessageResponse{Success: true, Message: s.label + " dihapus"})
}
