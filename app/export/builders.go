package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
)

var laporanColumns = []string{"No", "Judul Kegiatan", "Tempat", "Narasumber", "Deskripsi", "RTL", "Tanggal", "Status"}

// LaporanDetail is the single-report document students and DPLs download.
func LaporanDetail(l model.Laporan) Document {
	d := Document{Title: "LAPORAN KEGIATAN PENELITIAN", Subtitle: l.JudulKegiatan}

	d.field("Tanggal Kegiatan", LongDate(l.TanggalKegiatan))
	d.field("Bidang Penelitian", l.BidangName())
	d.field("Tempat Pelaksanaan", orDash(l.TempatPelaksanaan))
	d.field("Narasumber", orDash(l.Narasumber))
	d.field("Unsur Terlibat", orDash(l.UnsurTerlibat))
	d.field("Status Laporan", string(l.Status))
	d.spacer()

	d.heading("Informasi Kelompok")
	var k model.Kelompok
	if l.Kelompok != nil {
		k = *l.Kelompok
	}
	ketua := "N/A"
	if k.Ketua != nil {
		ketua = fmt.Sprintf("%s (%s) - %s", k.KetuaName(), orDefault(k.Ketua.NIM, "NIM tidak ada"), k.Ketua.ProdiName("N/A"))
	}
	d.field("Ketua Kelompok", ketua)
	d.field("DPL", k.DPLName())
	d.heading("Anggota")
	d.bullets(anggotaLines(k.Anggota, true))
	d.spacer()

	d.heading("Deskripsi Kegiatan")
	d.text(orDash(StripHTML(l.DeskripsiKegiatan)))
	d.spacer()

	d.heading("Mahasiswa Terlibat")
	d.bullets(l.MahasiswaTerlibat)
	d.spacer()

	d.heading("Rencana Tindak Lanjut")
	d.text(orDash(l.RencanaTindakLanjut))

	if len(l.DokumenPendukung) > 0 {
		d.spacer()
		d.heading("Dokumen Pendukung")
		files := make([]string, 0, len(l.DokumenPendukung))
		for _, a := range l.DokumenPendukung {
			files = append(files, a.FileName)
		}
		d.bullets(files)
	}

	if l.CatatanDPL != "" {
		d.spacer()
		d.heading("Catatan Revisi dari DPL")
		d.Blocks = append(d.Blocks, Block{Text: l.CatatanDPL, Italic: true})
	}
	return d
}

// KelompokRecap lists every report of a group. A non-empty prodi limits
// the member list to that programme.
func KelompokRecap(k model.Kelompok, laporan []model.Laporan, prodi string) Document {
	d := Document{Landscape: true}
	if prodi == "" {
		d.Title = "Rekapitulasi Laporan Lengkap per Kelompok"
		d.field("Ketua Kelompok", k.KetuaName())
		d.field("DPL", k.DPLName())
		d.heading("Anggota:")
		d.bullets(anggotaLines(k.Anggota, true))
	} else {
		d.Title = "Rekapitulasi Laporan Kelompok " + k.KetuaName()
		d.Subtitle = "Program Studi: " + prodi
		d.field("DPL", k.DPLName())
		d.heading("Anggota dari Prodi Terpilih:")
		var filtered []model.Anggota
		for _, a := range k.Anggota {
			if a.Prodi == prodi {
				filtered = append(filtered, a)
			}
		}
		d.bullets(anggotaLines(filtered, false))
	}
	d.spacer()

	rows := make([][]string, 0, len(laporan))
	for i, l := range laporan {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			l.JudulKegiatan,
			orDash(l.TempatPelaksanaan),
			orDash(l.Narasumber),
			StripHTML(l.DeskripsiKegiatan),
			orDash(l.RencanaTindakLanjut),
			ShortDate(l.TanggalKegiatan),
			string(l.Status),
		})
	}
	d.table(Table{
		Header: laporanColumns,
		Rows:   rows,
		Widths: []float64{0.5, 2, 1.3, 1.3, 3, 2, 1.2, 1.5},
	})
	return d
}

// NilaiGroup is one group's scores in a recap.
type NilaiGroup struct {
	Kelompok model.Kelompok
	Nilai    []model.Nilai
}

// NilaiRecap renders score tables; one group gets the per-group title,
// several get the overall title and groups without scores are skipped.
func NilaiRecap(groups []NilaiGroup) Document {
	d := Document{Title: "Rekapitulasi Nilai Keseluruhan"}
	if len(groups) == 1 {
		d.Title = "Rekapitulasi Nilai per Kelompok"
	}
	for _, g := range groups {
		if len(g.Nilai) == 0 && len(groups) > 1 {
			continue
		}
		d.heading("Kelompok: " + g.Kelompok.KetuaName())
		dpl := "N/A"
		if g.Kelompok.DPL != nil {
			dpl = g.Kelompok.DPLName()
		}
		d.text("DPL: " + dpl)

		rows := make([][]string, 0, len(g.Nilai))
		for i, n := range g.Nilai {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				n.MahasiswaNama,
				n.MahasiswaNIM,
				FormatScore(n.NilaiAkhir),
			})
		}
		d.table(Table{
			Header: []string{"No", "Nama Mahasiswa", "NIM", "Nilai Akhir"},
			Rows:   rows,
			Widths: []float64{0.5, 3, 2, 1.2},
		})
		d.spacer()
	}
	return d
}

// FormatScore prints whole scores without decimals.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func anggotaLines(anggota []model.Anggota, withProdi bool) []string {
	lines := make([]string, 0, len(anggota))
	for _, a := range anggota {
		line := fmt.Sprintf("%s (%s)", a.Nama, a.NIM)
		if withProdi {
			line += " - " + orDefault(a.Prodi, "N/A")
		}
		lines = append(lines, line)
	}
	return lines
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
