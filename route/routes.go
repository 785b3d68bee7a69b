package route

import (
	"github.com/gofiber/fiber/v2"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/mail"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/service"
	"github.com/suhendararyadi/lppm-iaipi-mhs/middleware"
)

func SetupRoutes(app *fiber.App, repos *repo.Repositories, files repo.FileRepository, notifier *mail.Notifier) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	authService := service.NewAuthService(repos.Users)
	prodiService := service.NewProdiService(repos.Prodi)
	bidangService := service.NewBidangService(repos.Bidang)
	userService := service.NewUserService(repos.Users, repos.Prodi, repos.Kelompok, repos.Laporan)
	kelompokService := service.NewKelompokService(repos.Kelompok, repos.Users)
	laporanService := service.NewLaporanService(repos.Laporan, repos.Kelompok, repos.Bidang, files, notifier)
	dplService := service.NewDPLService(repos.Laporan, repos.Kelompok)
	nilaiService := service.NewNilaiService(repos.Nilai, repos.Kelompok, repos.Users)
	cetakService := service.NewCetakService(repos.Kelompok, repos.Laporan)
	statistikService := service.NewStatistikService(repos.Users, repos.Laporan, repos.Bidang)

	auth := v1.Group("/auth")

	auth.Post("/login", authService.Login)
	auth.Post("/refresh", authService.Refresh)
	auth.Post("/logout", authService.Logout)
	// the role router reads the session itself so it can answer /login
	auth.Get("/redirect", authService.Redirect)

	v1.Get("/files/:name", laporanService.ServeFile)

	protected := v1.Group("", middleware.AuthRequired(repos.Users))

	protected.Get("/auth/profile", authService.Profile)

	mahasiswa := middleware.RoleRequired(model.RoleMahasiswa)
	dpl := middleware.RoleRequired(model.RoleDPL)
	lppm := middleware.RoleRequired(model.RoleLPPM)

	// Master data
	protected.Get("/bidang", bidangService.List)
	protected.Post("/bidang", lppm, bidangService.Create)
	protected.Put("/bidang/:id", lppm, bidangService.Update)
	protected.Delete("/bidang/:id", lppm, bidangService.Delete)

	protected.Get("/prodi", lppm, prodiService.List)
	protected.Post("/prodi", lppm, prodiService.Create)
	protected.Put("/prodi/:id", lppm, prodiService.Update)
	protected.Delete("/prodi/:id", lppm, prodiService.Delete)

	// Users
	users := protected.Group("/users", lppm)
	users.Get("/import/template", userService.ImportTemplate)
	users.Post("/import", userService.ImportUsers)
	users.Get("/", userService.GetAllUsers)
	users.Post("/", userService.CreateUser)
	users.Get("/:id", userService.GetUser)
	users.Put("/:id", userService.UpdateUser)
	users.Delete("/:id", userService.DeleteUser)

	// Kelompok
	protected.Get("/kelompok/me", mahasiswa, kelompokService.GetMine)
	protected.Post("/kelompok/me/anggota", mahasiswa, kelompokService.AddAnggota)
	protected.Put("/kelompok/me/anggota", mahasiswa, kelompokService.ReplaceAnggota)
	protected.Delete("/kelompok/me/anggota/:nim", mahasiswa, kelompokService.RemoveAnggota)
	protected.Get("/kelompok", lppm, kelompokService.List)
	protected.Put("/kelompok/:id/dpl", lppm, kelompokService.AssignDPL)

	// Laporan
	protected.Get("/laporan", laporanService.List)
	protected.Post("/laporan", mahasiswa, laporanService.Create)
	protected.Get("/laporan/:id", laporanService.Get)
	protected.Put("/laporan/:id", mahasiswa, laporanService.Update)
	protected.Delete("/laporan/:id", mahasiswa, laporanService.Delete)
	protected.Post("/laporan/:id/review", dpl, laporanService.Review)
	protected.Get("/laporan/:id/export.docx", laporanService.ExportDocx)
	protected.Get("/laporan/:id/export.pdf", laporanService.ExportPDF)

	// DPL
	protected.Get("/dpl/dashboard", dpl, dplService.Dashboard)
	protected.Get("/dpl/riwayat", dpl, dplService.Riwayat)
	protected.Get("/dpl/kelompok", dpl, kelompokService.ListSupervised)

	// Penilaian
	protected.Get("/penilaian/kelompok/:id", dpl, nilaiService.GetKelompok)
	protected.Put("/penilaian/kelompok/:id", dpl, nilaiService.SaveKelompok)
	protected.Get("/penilaian/kelompok/:id/export.docx", dpl, nilaiService.ExportKelompok)
	protected.Get("/nilai/me", mahasiswa, nilaiService.Mine)
	protected.Get("/nilai", lppm, nilaiService.List)
	protected.Get("/nilai/export.docx", lppm, nilaiService.Export)

	// Cetak
	cetak := protected.Group("/cetak", lppm)
	cetak.Get("/kelompok/:id/export.docx", cetakService.KelompokDocx)
	cetak.Get("/kelompok/:id/export.pdf", cetakService.KelompokPDF)
	cetak.Get("/kelompok/:id/prodi", cetakService.ProdiList)
	cetak.Get("/kelompok/:id/prodi/export.docx", cetakService.ProdiDocx)

	protected.Get("/statistik", lppm, statistikService.Get)
}
