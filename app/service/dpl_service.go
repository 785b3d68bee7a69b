package service

import (
	"github.com/gofiber/fiber/v2"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
)

const perluTindakanLimit = 5

type DPLService struct {
	laporanRepo  repo.LaporanRepository
	kelompokRepo repo.KelompokRepository
}

func NewDPLService(laporanRepo repo.LaporanRepository, kelompokRepo repo.KelompokRepository) *DPLService {
	return &DPLService{laporanRepo: laporanRepo, kelompokRepo: kelompokRepo}
}

// GET /api/v1/dpl/dashboard
func (s *DPLService) Dashboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	dplID := currentUserID(c)

	kelompok, err := s.kelompokRepo.FindByDPL(ctx, dplID)
	if err != nil {
		return failRepo(c, err, "Kelompok tidak ditemukan", "Gagal memuat kelompok bimbingan")
	}
	list, err := s.laporanRepo.FindAll(ctx, model.LaporanFilter{DPLID: &dplID})
	if err != nil {
		return failRepo(c, err, "Laporan tidak ditemukan", "Gagal memuat laporan")
	}

	return c.JSON(model.SuccessResponse[model.DPLDashboard]{
		Success: true,
		Data:    BuildDashboard(list, len(kelompok)),
	})
}

// BuildDashboard counts laporan per status. list is expected newest first,
// the order the repositories return.
func BuildDashboard(list []model.Laporan, totalBimbingan int) model.DPLDashboard {
	d := model.DPLDashboard{
		TotalBimbingan: totalBimbingan,
		PerluTindakan:  []model.LaporanListItem{},
	}
	for _, l := range list {
		switch l.Status {
		case model.StatusMenunggu:
			d.Menunggu++
		case model.StatusRevisi:
			d.Revisi++
		case model.StatusDisetujui:
			d.Disetujui++
			continue
		}
		if len(d.PerluTindakan) < perluTindakanLimit {
			d.PerluTindakan = append(d.PerluTindakan, model.NewLaporanListItem(l))
		}
	}
	return d
}

// GET /api/v1/dpl/riwayat
func (s *DPLService) Riwayat(c *fiber.Ctx) error {
	dplID := currentUserID(c)
	list, err := s.laporanRepo.FindAll(c.UserContext(), model.LaporanFilter{
		DPLID:    &dplID,
		Statuses: []model.LaporanStatus{model.StatusDisetujui, model.StatusRevisi},
	})
	if err != nil {
		return failRepo(c, err, "Laporan tidak ditemukan", "Gagal memuat riwayat")
	}
	return c.JSON(model.SuccessResponse[[]model.LaporanListItem]{
		Success: true,
		Data:    listItems(list),
	})
}
