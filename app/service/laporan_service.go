package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/export"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/mail"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
	"github.com/suhendararyadi/lppm-iaipi-mhs/helper"
)

const (
	fieldTerlibat = "mahasiswa_terlibat"
	fieldDokumen  = "dokumen_pendukung"
)

var (
	errTerlibatUnknown = errors.New("mahasiswa terlibat harus anggota kelompok")
	errBidangUnknown   = errors.New("bidang penelitian tidak ditemukan")
)

type LaporanService struct {
	laporanRepo  repo.LaporanRepository
	kelompokRepo repo.KelompokRepository
	bidangRepo   repo.BidangRepository
	files        repo.FileRepository
	notifier     *mail.Notifier
}

func NewLaporanService(
	laporanRepo repo.LaporanRepository,
	kelompokRepo repo.KelompokRepository,
	bidangRepo repo.BidangRepository,
	files repo.FileRepository,
	notifier *mail.Notifier,
) *LaporanService {
	return &LaporanService{
		laporanRepo:  laporanRepo,
		kelompokRepo: kelompokRepo,
		bidangRepo:   bidangRepo,
		files:        files,
		notifier:     notifier,
	}
}

// canView applies the role scoping shared by detail and export.
func canView(role string, userID uuid.UUID, l model.Laporan) bool {
	switch role {
	case model.RoleLPPM:
		return true
	case model.RoleDPL:
		return l.Kelompok != nil && l.Kelompok.DPLID != nil && *l.Kelompok.DPLID == userID
	case model.RoleMahasiswa:
		return l.Kelompok != nil && l.Kelompok.KetuaID == userID
	}
	return false
}

// loadVisible fetches a laporan and answers 404 for callers outside its scope.
func (s *LaporanService) loadVisible(c *fiber.Ctx) (*model.Laporan, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, fail(c, fiber.StatusBadRequest, "ID laporan tidak valid", err)
	}
	l, err := s.laporanRepo.FindByID(c.UserContext(), id)
	if err != nil {
		return nil, failRepo(c, err, "Laporan tidak ditemukan", "Gagal memuat laporan")
	}
	if !canView(currentRole(c), currentUserID(c), *l) {
		return nil, fail(c, fiber.StatusNotFound, "Laporan tidak ditemukan", nil)
	}
	return l, nil
}

// parseContent binds and validates the multipart fields of a laporan.
func (s *LaporanService) parseContent(c *fiber.Ctx, k model.Kelompok) (model.LaporanContent, *uuid.UUID, error) {
	var form model.LaporanForm
	if err := c.BodyParser(&form); err != nil {
		return model.LaporanContent{}, nil, err
	}
	form.JudulKegiatan = strings.TrimSpace(form.JudulKegiatan)
	form.TempatPelaksanaan = strings.TrimSpace(form.TempatPelaksanaan)
	form.BidangID = strings.TrimSpace(form.BidangID)
	if err := helper.ValidateStruct(form); err != nil {
		return model.LaporanContent{}, nil, err
	}

	tanggal, err := time.Parse("2006-01-02", form.TanggalKegiatan)
	if err != nil {
		return model.LaporanContent{}, nil, err
	}

	var bidangID *uuid.UUID
	if form.BidangID != "" {
		id, err := uuid.Parse(form.BidangID)
		if err != nil {
			return model.LaporanContent{}, nil, errBidangUnknown
		}
		if _, err := s.bidangRepo.FindByID(c.UserContext(), id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return model.LaporanContent{}, nil, errBidangUnknown
			}
			return model.LaporanContent{}, nil, err
		}
		bidangID = &id
	}

	terlibat, err := TerlibatNames(formValues(c, fieldTerlibat), k)
	if err != nil {
		return model.LaporanContent{}, nil, err
	}

	return model.LaporanContent{
		JudulKegiatan:       form.JudulKegiatan,
		TanggalKegiatan:     tanggal,
		TempatPelaksanaan:   form.TempatPelaksanaan,
		Narasumber:          strings.TrimSpace(form.Narasumber),
		UnsurTerlibat:       strings.TrimSpace(form.UnsurTerlibat),
		DeskripsiKegiatan:   form.DeskripsiKegiatan,
		RencanaTindakLanjut: form.RencanaTindakLanjut,
		MahasiswaTerlibat:   terlibat,
	}, bidangID, nil
}

func formValues(c *fiber.Ctx, key string) []string {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		if v := c.FormValue(key); v != "" {
			return []string{v}
		}
		return nil
	}
	return form.Value[key]
}

func formFiles(c *fiber.Ctx, key string) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[key]
}

// TerlibatNames turns the submitted mahasiswa_terlibat values into a
// deduplicated list of names. A single value holding a JSON array is
// accepted too. Every name must be the leader or a roster member.
func TerlibatNames(values []string, k model.Kelompok) ([]string, error) {
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var decoded []string
		if err := json.Unmarshal([]byte(values[0]), &decoded); err != nil {
			return nil, err
		}
		values = decoded
	}

	allowed := make(map[string]bool, len(k.Anggota)+1)
	if k.Ketua != nil {
		allowed[k.Ketua.FullName] = true
	}
	for _, a := range k.Anggota {
		allowed[a.Nama] = true
	}

	seen := make(map[string]bool, len(values))
	names := make([]string, 0, len(values))
	for _, v := range values {
		name := strings.TrimSpace(v)
		if name == "" || seen[name] {
			continue
		}
		if !allowed[name] {
			return nil, fmt.Errorf("%w: %s", errTerlibatUnknown, name)
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

// storeFiles saves every upload. On failure the files already written are
// removed again.
func (s *LaporanService) storeFiles(owner uuid.UUID, headers []*multipart.FileHeader) ([]model.Attachment, error) {
	saved := make([]model.Attachment, 0, len(headers))
	for _, fh := range headers {
		a, err := s.files.Save(owner, fh)
		if err != nil {
			s.removeFiles(saved)
			return nil, err
		}
		saved = append(saved, a)
	}
	return saved, nil
}

func (s *LaporanService) removeFiles(list []model.Attachment) {
	for _, a := range list {
		if err := s.files.Delete(repo.StoredName(a.FileURL)); err != nil && !errors.Is(err, repo.ErrNotFound) {
			helper.ReportError("hapus dokumen pendukung", err, map[string]interface{}{"file": a.FileURL})
		}
	}
}

func contentFailed(c *fiber.Ctx, err error) error {
	switch {
	case helper.IsValidationError(err):
		return validationFailed(c, err)
	case errors.Is(err, errBidangUnknown):
		return fail(c, fiber.StatusBadRequest, "Bidang penelitian tidak ditemukan", nil)
	case errors.Is(err, errTerlibatUnknown):
		return fail(c, fiber.StatusBadRequest, "Mahasiswa terlibat tidak valid", err)
	}
	return invalidInput(c, err)
}

// POST /api/v1/laporan
func (s *LaporanService) Create(c *fiber.Ctx) error {
	ctx := c.UserContext()
	k, err := s.kelompokRepo.FindByKetuaID(ctx, currentUserID(c))
	if err != nil {
		return failRepo(c, err, "Kelompok belum dibuat", "Gagal memuat kelompok")
	}

	content, bidangID, err := s.parseContent(c, *k)
	if err != nil {
		return contentFailed(c, err)
	}

	attachments, err := s.storeFiles(k.ID, formFiles(c, fieldDokumen))
	if err != nil {
		helper.ReportError("simpan dokumen pendukung", err)
		return fail(c, fiber.StatusInternalServerError, "Gagal menyimpan dokumen pendukung", err)
	}

	l := model.Laporan{
		KelompokID:       k.ID,
		BidangID:         bidangID,
		Status:           model.StatusMenunggu,
		DokumenPendukung: attachments,
		LaporanContent:   content,
	}
	if err := s.laporanRepo.Create(ctx, &l); err != nil {
		s.removeFiles(attachments)
		return failRepo(c, err, "Kelompok tidak ditemukan", "Gagal menyimpan laporan")
	}

	if k.DPL != nil {
		s.notifier.Notify(mail.LaporanSubmitted(k.DPL.Email, k.DPL.FullName, k.KetuaName(), l.JudulKegiatan))
	}

	return c.Status(fiber.StatusCreated).JSON(model.SuccessResponse[model.Laporan]{
		Success: true,
		Message: "Laporan berhasil dikirim",
		Data:    l,
	})
}

// GET /api/v1/laporan
func (s *LaporanService) List(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	var f model.LaporanFilter
	if raw := c.Query("status"); raw != "" {
		status := model.LaporanStatus(raw)
		if !status.Valid() {
			return fail(c, fiber.StatusBadRequest, "Status tidak valid", nil)
		}
		f.Statuses = []model.LaporanStatus{status}
	}

	switch currentRole(c) {
	case model.RoleMahasiswa:
		k, err := s.kelompokRepo.FindByKetuaID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return c.JSON(model.SuccessResponse[[]model.LaporanListItem]{Success: true, Data: []model.LaporanListItem{}})
		}
		if err != nil {
			return failRepo(c, err, "Kelompok tidak ditemukan", "Gagal memuat kelompok")
		}
		f.KelompokID = &k.ID
	case model.RoleDPL:
		f.DPLID = &userID
	}

	list, err := s.laporanRepo.FindAll(ctx, f)
	if err != nil {
		return failRepo(c, err, "Laporan tidak ditemukan", "Gagal memuat laporan")
	}
	return c.JSON(model.SuccessResponse[[]model.LaporanListItem]{
		Success: true,
		Data:    listItems(list),
	})
}

func listItems(list []model.Laporan) []model.LaporanListItem {
	items := make([]model.LaporanListItem, 0, len(list))
	for _, l := range list {
		items = append(items, model.NewLaporanListItem(l))
	}
	return items
}

// GET /api/v1/laporan/:id
func (s *LaporanService) Get(c *fiber.Ctx) error {
	l, err := s.loadVisible(c)
	if l == nil {
		return err
	}
	return c.JSON(model.SuccessResponse[model.Laporan]{Success: true, Data: *l})
}

// PUT /api/v1/laporan/:id
//
// An edit always sends the laporan back to the DPL. The previous review
// note stays visible until the next review replaces it.
func (s *LaporanService) Update(c *fiber.Ctx) error {
	l, err := s.loadVisible(c)
	if l == nil {
		return err
	}
	if currentRole(c) != model.RoleMahasiswa {
		return fail(c, fiber.StatusForbidden, "Hanya ketua kelompok yang dapat mengubah laporan", nil)
	}
	if l.Status == model.StatusDisetujui {
		return fail(c, fiber.StatusConflict, "Laporan yang sudah disetujui tidak dapat diubah", nil)
	}

	content, bidangID, err := s.parseContent(c, *l.Kelompok)
	if err != nil {
		return contentFailed(c, err)
	}

	added, err := s.storeFiles(l.KelompokID, formFiles(c, fieldDokumen))
	if err != nil {
		helper.ReportError("simpan dokumen pendukung", err)
		return fail(c, fiber.StatusInternalServerError, "Gagal menyimpan dokumen pendukung", err)
	}

	l.LaporanContent = content
	l.BidangID = bidangID
	l.Status = model.StatusMenunggu
	l.DokumenPendukung = append(l.DokumenPendukung, added...)

	if err := s.laporanRepo.Update(c.UserContext(), l); err != nil {
		s.removeFiles(added)
		return failRepo(c, err, "Laporan tidak ditemukan", "Gagal memperbarui laporan")
	}

	return c.JSON(model.SuccessResponse[model.Laporan]{
		Success: true,
		Message: "Laporan diperbarui dan menunggu persetujuan",
		Data:    *l,
	})
}

// DELETE /api/v1/laporan/:id
func (s *LaporanService) Delete(c *fiber.Ctx) error {
	l, err := s.loadVisible(c)
	if l == nil {
		return err
	}
	if currentRole(c) != model.RoleMahasiswa {
		return fail(c, fiber.StatusForbidden, "Hanya ketua kelompok yang dapat menghapus laporan", nil)
	}
	if l.Status == model.StatusDisetujui {
		return fail(c, fiber.StatusConflict, "Laporan yang sudah disetujui tidak dapat dihapus", nil)
	}

	if err := s.laporanRepo.Delete(c.UserContext(), l.ID); err != nil {
		return failRepo(c, err, "Laporan tidak ditemukan", "Gagal menghapus laporan")
	}
	s.removeFiles(l.DokumenPendukung)

	return c.JSON(model.SuccessMessageResponse{Success: true, Message: "Laporan dihapus"})
}

// POST /api/v1/laporan/:id/review
func (s *LaporanService) Review(c *fiber.Ctx) error {
	var req model.ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidInput(c, err)
	}
	req.CatatanDPL = strings.TrimSpace(req.CatatanDPL)
	if err := helper.ValidateStruct(req); err != nil {
		return validationFailed(c, err)
	}

	l, err := s.loadVisible(c)
	if l == nil {
		return err
	}
	reviewer := currentUserID(c)
	if l.Kelompok == nil || l.Kelompok.DPLID == nil || *l.Kelompok.DPLID != reviewer {
		return fail(c, fiber.StatusForbidden, "Hanya DPL kelompok yang dapat meninjau laporan", nil)
	}

	now := time.Now()
	l.Status = req.Status
	l.CatatanDPL = req.CatatanDPL
	l.ReviewedBy = &reviewer
	l.ReviewedAt = &now

	if err := s.laporanRepo.Update(c.UserContext(), l); err != nil {
		return failRepo(c, err, "Laporan tidak ditemukan", "Gagal menyimpan hasil tinjauan")
	}

	if ketua := l.Kelompok.Ketua; ketua != nil {
		s.notifier.Notify(mail.LaporanReviewed(ketua.Email, ketua.FullName, l.JudulKegiatan, string(l.Status), l.CatatanDPL))
	}

	return c.JSON(model.SuccessResponse[model.Laporan]{
		Success: true,
		Message: "Laporan telah ditinjau",
		Data:    *l,
	})
}

// GET /api/v1/files/:name
func (s *LaporanService) ServeFile(c *fiber.Ctx) error {
	p, err := s.files.Path(c.Params("name"))
	if err != nil {
		return fail(c, fiber.StatusNotFound, "Dokumen tidak ditemukan", nil)
	}
	return c.SendFile(p)
}

// GET /api/v1/laporan/:id/export.docx
func (s *LaporanService) ExportDocx(c *fiber.Ctx) error {
	l, err := s.loadVisible(c)
	if l == nil {
		return err
	}
	var buf bytes.Buffer
	if err := export.RenderDocx(&buf, export.LaporanDetail(*l)); err != nil {
		helper.ReportError("export laporan docx", err)
		return fail(c, fiber.StatusInternalServerError, "Gagal membuat dokumen", err)
	}
	return sendDocument(c, mimeDocx, export.Filename("laporan", l.JudulKegiatan, "docx"), buf.Bytes())
}

// GET /api/v1/laporan/:id/export.pdf
func (s *LaporanService) ExportPDF(c *fiber.Ctx) error {
	l, err := s.loadVisible(c)
	if l == nil {
		return err
	}
	var buf bytes.Buffer
	if err := export.RenderPDF(&buf, export.LaporanDetail(*l)); err != nil {
		helper.ReportError("export laporan pdf", err)
		return fail(c, fiber.StatusInternalServerError, "Gagal membuat dokumen", err)
	}
	return sendDocument(c, mimePDF, export.Filename("laporan", l.JudulKegiatan, "pdf"), buf.Bytes())
}
