package service

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/export"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
	"github.com/suhendararyadi/lppm-iaipi-mhs/helper"
)

type CetakService struct {
	kelompokRepo repo.KelompokRepository
	laporanRepo  repo.LaporanRepository
}

func NewCetakService(kelompokRepo repo.KelompokRepository, laporanRepo repo.LaporanRepository) *CetakService {
	return &CetakService{kelompokRepo: kelompokRepo, laporanRepo: laporanRepo}
}

// load returns the group named by :id and its laporan, oldest activity first.
func (s *CetakService) load(c *fiber.Ctx) (*model.Kelompok, []model.Laporan, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, nil, fail(c, fiber.StatusBadRequest, "kelompok_id tidak valid", err)
	}
	ctx := c.UserContext()
	k, err := s.kelompokRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, failRepo(c, err, "Kelompok tidak ditemukan", "Gagal memuat kelompok")
	}
	list, err := s.laporanRepo.FindAll(ctx, model.LaporanFilter{KelompokID: &k.ID})
	if err != nil {
		return nil, nil, failRepo(c, err, "Laporan tidak ditemukan", "Gagal memuat laporan")
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].TanggalKegiatan.Before(list[j].TanggalKegiatan)
	})
	return k, list, nil
}

func render(c *fiber.Ctx, mime, filename string, doc export.Document, fn func(io.Writer, export.Document) error) error {
	var buf bytes.Buffer
	if err := fn(&buf, doc); err != nil {
		helper.ReportError("export "+filename, err)
		return fail(c, fiber.StatusInternalServerError, "Gagal membuat dokumen", err)
	}
	return sendDocument(c, mime, filename, buf.Bytes())
}

// GET /api/v1/cetak/kelompok/:id/export.docx
func (s *CetakService) KelompokDocx(c *fiber.Ctx) error {
	k, list, err := s.load(c)
	if k == nil {
		return err
	}
	return render(c, mimeDocx, export.Filename("rekap-kelompok", k.KetuaName(), "docx"),
		export.KelompokRecap(*k, list, ""), export.RenderDocx)
}

// GET /api/v1/cetak/kelompok/:id/export.pdf
func (s *CetakService) KelompokPDF(c *fiber.Ctx) error {
	k, list, err := s.load(c)
	if k == nil {
		return err
	}
	return render(c, mimePDF, export.Filename("rekap-kelompok", k.KetuaName(), "pdf"),
		export.KelompokRecap(*k, list, ""), export.RenderPDF)
}

// GET /api/v1/cetak/kelompok/:id/prodi
func (s *CetakService) ProdiList(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "kelompok_id tidak valid", err)
	}
	k, err := s.kelompokRepo.FindByID(c.UserContext(), id)
	if err != nil {
		return failRepo(c, err, "Kelompok tidak ditemukan", "Gagal memuat kelompok")
	}
	return c.JSON(model.SuccessResponse[[]string]{Success: true, Data: RosterProdi(*k)})
}

// RosterProdi lists the distinct programmes of a group's members, sorted.
func RosterProdi(k model.Kelompok) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, a := range k.Anggota {
		p := strings.TrimSpace(a.Prodi)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// GET /api/v1/cetak/kelompok/:id/prodi/export.docx?prodi=
func (s *CetakService) ProdiDocx(c *fiber.Ctx) error {
	prodi := strings.TrimSpace(c.Query("prodi"))
	if prodi == "" {
		return fail(c, fiber.StatusBadRequest, "Parameter prodi wajib diisi", nil)
	}
	k, list, err := s.load(c)
	if k == nil {
		return err
	}
	return render(c, mimeDocx, export.Filename("rekap-prodi", prodi+"-kelompok-"+k.KetuaName(), "docx"),
		export.KelompokRecap(*k, list, prodi), export.RenderDocx)
}
