package service

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
)

const dailyWindow = 30

type StatistikService struct {
	userRepo    repo.UserRepository
	laporanRepo repo.LaporanRepository
	bidangRepo  repo.BidangRepository
}

func NewStatistikService(userRepo repo.UserRepository, laporanRepo repo.LaporanRepository, bidangRepo repo.BidangRepository) *StatistikService {
	return &StatistikService{userRepo: userRepo, laporanRepo: laporanRepo, bidangRepo: bidangRepo}
}

// GET /api/v1/statistik
func (s *StatistikService) Get(c *fiber.Ctx) error {
	ctx := c.UserContext()

	counts, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return failRepo(c, err, "Data tidak ditemukan", "Gagal menghitung pengguna")
	}
	laporan, err := s.laporanRepo.FindAll(ctx, model.LaporanFilter{})
	if err != nil {
		return failRepo(c, err, "Laporan tidak ditemukan", "Gagal memuat laporan")
	}
	bidang, err := s.bidangRepo.Count(ctx)
	if err != nil {
		return failRepo(c, err, "Data tidak ditemukan", "Gagal menghitung bidang penelitian")
	}

	return c.JSON(model.SuccessResponse[model.StatistikResponse]{
		Success: true,
		Data:    BuildStatistik(counts, laporan, int(bidang), time.Now()),
	})
}

// BuildStatistik aggregates the dashboard numbers. The daily series covers
// the dailyWindow days ending today, oldest first, with empty days as zero.
func BuildStatistik(roles map[string]int, laporan []model.Laporan, bidang int, now time.Time) model.StatistikResponse {
	res := model.StatistikResponse{
		TotalMahasiswa: roles[model.RoleMahasiswa],
		TotalDPL:       roles[model.RoleDPL],
		TotalLaporan:   len(laporan),
		TotalBidang:    bidang,
	}
	for role, n := range roles {
		if role != model.RoleLPPM {
			res.TotalUsers += n
		}
	}

	byStatus := map[model.LaporanStatus]int{}
	perDay := map[string]int{}
	for _, l := range laporan {
		byStatus[l.Status]++
		perDay[l.CreatedAt.In(now.Location()).Format("2006-01-02")]++
	}
	for _, st := range []model.LaporanStatus{model.StatusMenunggu, model.StatusRevisi, model.StatusDisetujui} {
		res.ByStatus = append(res.ByStatus, model.StatItem{Label: string(st), Count: byStatus[st]})
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	res.Daily = make([]model.DailyCount, 0, dailyWindow)
	for i := dailyWindow - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format("2006-01-02")
		res.Daily = append(res.Daily, model.DailyCount{Date: day, Total: perDay[day]})
	}
	return res
}
