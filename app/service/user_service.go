package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/importer"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
	"github.com/suhendararyadi/lppm-iaipi-mhs/helper"
)

type UserService struct {
	userRepo     repo.UserRepository
	prodiRepo    repo.ProdiRepository
	kelompokRepo repo.KelompokRepository
	laporanRepo  repo.LaporanRepository
}

func NewUserService(userRepo repo.UserRepository, prodiRepo repo.ProdiRepository, kelompokRepo repo.KelompokRepository, laporanRepo repo.LaporanRepository) *UserService {
	return &UserService{
		userRepo:     userRepo,
		prodiRepo:    prodiRepo,
		kelompokRepo: kelompokRepo,
		laporanRepo:  laporanRepo,
	}
}

// GET /api/v1/users
func (s *UserService) GetAllUsers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	search := strings.TrimSpace(c.Query("search", ""))
	role := c.Query("role", "")
	sortBy := c.Query("sortBy", "created_at")
	order := strings.ToLower(c.Query("order", "desc"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	validSorts := map[string]bool{"email": true, "full_name": true, "nim": true, "role": true, "created_at": true}
	if !validSorts[sortBy] {
		sortBy = "created_at"
	}
	if order != "asc" {
		order = "desc"
	}
	if role != "" && !model.IsValidRole(role) {
		return fail(c, fiber.StatusBadRequest, "Role tidak valid: "+role, nil)
	}

	users, total, err := s.userRepo.FindAll(c.UserContext(), model.UserFilter{
		Page:   page,
		Limit:  limit,
		Search: search,
		Role:   role,
		SortBy: sortBy,
		Order:  order,
	})
	if err != nil {
		return failRepo(c, err, "User tidak ditemukan", "Gagal memuat data user")
	}

	items := make([]model.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, model.NewUserResponse(u))
	}

	return c.JSON(model.SuccessResponse[model.PaginationData[model.UserResponse]]{
		Success: true,
		Data: model.Paginate(items, model.MetaInfo{
			Page:   page,
			Limit:  limit,
			Total:  total,
			SortBy: sortBy,
			Order:  order,
			Search: search,
		}),
	})
}

// GET /api/v1/users/:id
func (s *UserService) GetUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "user_id tidak valid", err)
	}

	user, err := s.userRepo.FindByID(c.UserContext(), id)
	if err != nil {
		return failRepo(c, err, "User tidak ditemukan", "Gagal memuat user")
	}

	return c.JSON(model.SuccessResponse[model.UserResponse]{
		Success: true,
		Data:    model.NewUserResponse(*user),
	})
}

// POST /api/v1/users
func (s *UserService) CreateUser(c *fiber.Ctx) error {
	var req model.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidInput(c, err)
	}
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	req.NIM = strings.TrimSpace(req.NIM)

	if err := helper.ValidateStruct(req); err != nil {
		return validationFailed(c, err)
	}

	if req.ProdiID != nil {
		if _, err := s.prodiRepo.FindByID(c.UserContext(), *req.ProdiID); err != nil {
			return failRepo(c, err, "Program studi tidak ditemukan", "Gagal memuat program studi")
		}
	}

	hashedPwd, err := helper.HashPassword(req.Password)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Gagal menghash password", err)
	}

	newUser := model.User{
		Email:        req.Email,
		PasswordHash: hashedPwd,
		FullName:     req.FullName,
		Role:         req.Role,
		ProdiID:      req.ProdiID,
	}
	if req.Role == model.RoleMahasiswa {
		newUser.NIM = req.NIM
	}

	if err := s.userRepo.Create(c.UserContext(), &newUser); err != nil {
		return failRepo(c, err, "User tidak ditemukan", "Gagal membuat user")
	}

	return c.Status(fiber.StatusCreated).JSON(model.SuccessResponse[model.UserResponse]{
		Success: true,
		Message: "User berhasil dibuat",
		Data:    model.NewUserResponse(newUser),
	})
}

// PUT /api/v1/users/:id
func (s *UserService) UpdateUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "user_id tidak valid", err)
	}

	var req model.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidInput(c, err)
	}
	if err := helper.ValidateStruct(req); err != nil {
		return validationFailed(c, err)
	}

	user, err := s.userRepo.FindByID(c.UserContext(), id)
	if err != nil {
		return failRepo(c, err, "User tidak ditemukan", "Gagal memuat user")
	}

	if req.Email != "" {
		user.Email = strings.TrimSpace(req.Email)
	}
	if req.FullName != "" {
		user.FullName = strings.TrimSpace(req.FullName)
	}
	if req.NIM != "" {
		user.NIM = strings.TrimSpace(req.NIM)
	}
	if req.Role != "" {
		user.Role = req.Role
	}
	if user.Role == model.RoleMahasiswa && user.NIM == "" {
		return fail(c, fiber.StatusBadRequest, "NIM wajib diisi untuk mahasiswa", nil)
	}
	if req.ProdiID != nil {
		if _, err := s.prodiRepo.FindByID(c.UserContext(), *req.ProdiID); err != nil {
			return failRepo(c, err, "Program studi tidak ditemukan", "Gagal memuat program studi")
		}
		user.ProdiID = req.ProdiID
	}
	if req.Password != "" {
		hashedPwd, err := helper.HashPassword(req.Password)
		if err != nil {
			return fail(c, fiber.StatusInternalServerError, "Gagal menghash password", err)
		}
		user.PasswordHash = hashedPwd
	}

	if err := s.userRepo.Update(c.UserContext(), user); err != nil {
		return failRepo(c, err, "User tidak ditemukan", "Gagal mengupdate user")
	}

	return c.JSON(model.SuccessMessageResponse{
		Success: true,
		Message: "User berhasil diupdate",
	})
}

// DELETE /api/v1/users/:id
func (s *UserService) DeleteUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "user_id tidak valid", err)
	}
	if id == currentUserID(c) {
		return fail(c, fiber.StatusForbidden, "Tidak dapat menghapus akun sendiri", nil)
	}

	ctx := c.UserContext()
	if supervised, err := s.kelompokRepo.FindByDPL(ctx, id); err != nil {
		return failRepo(c, err, "User tidak ditemukan", "Gagal memeriksa kelompok bimbingan")
	} else if len(supervised) > 0 {
		return fail(c, fiber.StatusConflict, "User masih menjadi DPL kelompok, ganti DPL terlebih dahulu", nil)
	}

	// A leader's empty group goes with them; one holding reports blocks the delete.
	k, err := s.kelompokRepo.FindByKetuaID(ctx, id)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return failRepo(c, err, "Kelompok tidak ditemukan", "Gagal memeriksa kelompok user")
	}
	if err == nil {
		laporan, err := s.laporanRepo.FindAll(ctx, model.LaporanFilter{KelompokID: &k.ID})
		if err != nil {
			return failRepo(c, err, "Laporan tidak ditemukan", "Gagal memeriksa laporan kelompok")
		}
		if len(laporan) > 0 {
			return fail(c, fiber.StatusConflict, "User adalah ketua kelompok yang memiliki laporan", nil)
		}
		if err := s.kelompokRepo.Delete(ctx, k.ID); err != nil {
			return failRepo(c, err, "Kelompok tidak ditemukan", "Gagal menghapus kelompok user")
		}
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return failRepo(c, err, "User tidak ditemukan", "Gagal menghapus user")
	}

	return c.JSON(model.SuccessMessageResponse{
		Success: true,
		Message: "User berhasil dihapus",
	})
}

// GET /api/v1/users/import/template?role=
func (s *UserService) ImportTemplate(c *fiber.Ctx) error {
	role := c.Query("role", model.RoleMahasiswa)
	body, err := importer.Template(role)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Template tidak tersedia", err)
	}
	return sendDocument(c, mimeXlsx, "template_import_"+role+".xlsx", body)
}

// POST /api/v1/users/import
func (s *UserService) ImportUsers(c *fiber.Ctx) error {
	role := c.FormValue("role", model.RoleMahasiswa)
	if _, ok := importer.Columns(role); !ok {
		return fail(c, fiber.StatusBadRequest, "Role impor harus mahasiswa atau dpl", nil)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "File wajib diunggah", err)
	}
	f, err := fh.Open()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "File tidak dapat dibuka", err)
	}
	defer f.Close()

	rows, err := importer.Parse(f, role)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "File tidak valid", err)
	}
	if len(rows) == 0 {
		return fail(c, fiber.StatusBadRequest, "File tidak berisi data", nil)
	}

	ctx := c.UserContext()
	lookup, err := s.importLookup(ctx, role)
	if err != nil {
		return failRepo(c, err, "Data referensi tidak ditemukan", "Gagal memuat data referensi impor")
	}

	result := model.ImportResult{}
	for _, row := range rows {
		if err := s.importRow(ctx, role, row, lookup); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("Baris %d (%s): %s", row.Line, row.Get("email"), err.Error()))
			continue
		}
		result.SuccessCount++
	}

	status := fiber.StatusOK
	if result.SuccessCount == 0 {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(model.SuccessResponse[model.ImportResult]{
		Success: result.SuccessCount > 0,
		Message: fmt.Sprintf("Impor selesai: %d berhasil, %d gagal", result.SuccessCount, result.ErrorCount),
		Data:    result,
	})
}

// importRefs holds the lookups resolved once per import.
type importRefs struct {
	prodi map[string]uuid.UUID
	dpl   map[string]uuid.UUID
}

func (s *UserService) importLookup(ctx context.Context, role string) (importRefs, error) {
	refs := importRefs{prodi: map[string]uuid.UUID{}, dpl: map[string]uuid.UUID{}}
	if role != model.RoleMahasiswa {
		return refs, nil
	}

	prodi, err := s.prodiRepo.FindAll(ctx)
	if err != nil {
		return refs, err
	}
	for _, p := range prodi {
		refs.prodi[strings.ToLower(strings.TrimSpace(p.Name))] = p.ID
	}

	dpl, err := s.userRepo.FindByRole(ctx, model.RoleDPL)
	if err != nil {
		return refs, err
	}
	for _, d := range dpl {
		refs.dpl[strings.ToLower(d.Email)] = d.ID
	}
	return refs, nil
}

func (s *UserService) importRow(ctx context.Context, role string, row importer.Row, refs importRefs) error {
	email := strings.ToLower(row.Get("email"))
	nama := row.Get("nama_lengkap")
	password := row.Get("password_default")

	if nama == "" {
		return errors.New("nama_lengkap wajib diisi")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("email %q tidak valid", email)
	}
	if len(password) < 6 {
		return errors.New("password_default minimal 6 karakter")
	}

	user := model.User{Email: email, FullName: nama, Role: role}

	var dplID uuid.UUID
	if role == model.RoleMahasiswa {
		user.NIM = row.Get("nim")
		if user.NIM == "" {
			return errors.New("nim wajib diisi")
		}
		prodiID, ok := refs.prodi[strings.ToLower(row.Get("prodi"))]
		if !ok {
			return fmt.Errorf("prodi %q tidak ditemukan", row.Get("prodi"))
		}
		user.ProdiID = &prodiID
		if dplID, ok = refs.dpl[strings.ToLower(row.Get("dpl_email"))]; !ok {
			return fmt.Errorf("DPL dengan email %q tidak ditemukan", row.Get("dpl_email"))
		}
	}

	hash, err := helper.HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	if err := s.userRepo.Create(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return errors.New("email sudah terdaftar")
		}
		return err
	}

	if role == model.RoleMahasiswa {
		k := model.Kelompok{KetuaID: user.ID, DPLID: &dplID}
		if err := s.kelompokRepo.Create(ctx, &k); err != nil {
			// the user must not outlive a failed group
			if delErr := s.userRepo.Delete(context.WithoutCancel(ctx), user.ID); delErr != nil {
				helper.ReportError("rollback user impor", delErr)
			}
			return fmt.Errorf("gagal membuat kelompok: %v", err)
		}
	}
	return nil
}
