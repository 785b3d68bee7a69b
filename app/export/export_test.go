package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Penyuluhan warga", "Penyuluhan warga"},
		{"paragraphs", "<p>Satu</p><p>Dua</p>", "Satu\nDua"},
		{"line breaks", "a<br>b<br/>c<br />d", "a\nb\nc\nd"},
		{"entities", "<b>Tanya &amp; Jawab</b>", "Tanya & Jawab"},
		{"collapses spaces", "<p>  banyak    spasi  </p>", "banyak spasi"},
		{"unclosed tag", "teks <span", "teks"},
		{"empty", "<p></p>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripHTML(tt.in))
		})
	}
}

func TestDates(t *testing.T) {
	d := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "7/3/2025", ShortDate(d))
	assert.Equal(t, "07 Maret 2025", LongDate(d))
	assert.Equal(t, "-", ShortDate(time.Time{}))
	assert.Equal(t, "-", LongDate(time.Time{}))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "laporan-Penyuluhan_Warga.docx", Filename("laporan", " Penyuluhan Warga ", "docx"))
	assert.Equal(t, "laporan-ab.pdf", Filename("laporan", `a/b?`, "pdf"))
	assert.Equal(t, "laporan-dokumen.pdf", Filename("laporan", "  ", "pdf"))
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "85", FormatScore(85))
	assert.Equal(t, "87.5", FormatScore(87.5))
}

func TestColumnWidths(t *testing.T) {
	assert.Equal(t, []float64{30, 30, 30}, columnWidths(90, 3, nil))
	assert.Equal(t, []float64{25, 75}, columnWidths(100, 2, []float64{1, 3}))
	// mismatched weights fall back to equal columns
	assert.Equal(t, []float64{50, 50}, columnWidths(100, 2, []float64{1}))
}

func sampleKelompok() model.Kelompok {
	return model.Kelompok{
		ID:    uuid.New(),
		Ketua: &model.User{FullName: "Budi", NIM: "2201001"},
		DPL:   &model.User{FullName: "Dr. Siti"},
		Anggota: []model.Anggota{
			{Nama: "Ani", NIM: "2201002", Prodi: "PAI"},
			{Nama: "Bayu", NIM: "2201003", Prodi: "ES"},
		},
	}
}

func sampleLaporan(k model.Kelompok) model.Laporan {
	return model.Laporan{
		Status:   model.StatusRevisi,
		Kelompok: &k,
		LaporanContent: model.LaporanContent{
			JudulKegiatan:     "Penyuluhan Zakat",
			TanggalKegiatan:   time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC),
			DeskripsiKegiatan: "<p>Diskusi bersama warga</p>",
			MahasiswaTerlibat: []string{"Budi", "Ani"},
		},
		CatatanDPL: "Lengkapi foto",
	}
}

func textOf(d Document) []string {
	var out []string
	for _, b := range d.Blocks {
		switch {
		case b.Heading != "":
			out = append(out, b.Heading)
		case b.Field != nil:
			out = append(out, b.Field.Label+": "+b.Field.Value)
		case b.Text != "":
			out = append(out, b.Text)
		}
		out = append(out, b.Bullets...)
	}
	return out
}

func TestLaporanDetail(t *testing.T) {
	d := LaporanDetail(sampleLaporan(sampleKelompok()))

	assert.Equal(t, "Penyuluhan Zakat", d.Subtitle)
	lines := textOf(d)
	assert.Contains(t, lines, "Tanggal Kegiatan: 10 Juli 2024")
	assert.Contains(t, lines, "Ketua Kelompok: Budi (2201001) - N/A")
	assert.Contains(t, lines, "DPL: Dr. Siti")
	assert.Contains(t, lines, "Ani (2201002) - PAI")
	assert.Contains(t, lines, "Diskusi bersama warga")
	assert.Contains(t, lines, "Catatan Revisi dari DPL")
	assert.Contains(t, lines, "Lengkapi foto")
	assert.NotContains(t, lines, "Dokumen Pendukung")
}

func TestKelompokRecap(t *testing.T) {
	k := sampleKelompok()
	laporan := []model.Laporan{sampleLaporan(k)}

	all := KelompokRecap(k, laporan, "")
	assert.True(t, all.Landscape)
	assert.Equal(t, "Rekapitulasi Laporan Lengkap per Kelompok", all.Title)
	assert.Contains(t, textOf(all), "Bayu (2201003) - ES")

	byProdi := KelompokRecap(k, laporan, "PAI")
	assert.Equal(t, "Rekapitulasi Laporan Kelompok Budi", byProdi.Title)
	assert.Equal(t, "Program Studi: PAI", byProdi.Subtitle)
	lines := textOf(byProdi)
	assert.Contains(t, lines, "Ani (2201002)")
	assert.NotContains(t, lines, "Bayu (2201003)")

	var table *Table
	for _, b := range byProdi.Blocks {
		if b.Table != nil {
			table = b.Table
		}
	}
	require.NotNil(t, table)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"1", "Penyuluhan Zakat", "-", "-", "Diskusi bersama warga", "-", "10/7/2024", "Revisi"}, table.Rows[0])
}

func TestNilaiRecap(t *testing.T) {
	k := sampleKelompok()
	empty := model.Kelompok{Ketua: &model.User{FullName: "Eka"}}
	scored := NilaiGroup{Kelompok: k, Nilai: []model.Nilai{{MahasiswaNama: "Ani", MahasiswaNIM: "2201002", NilaiAkhir: 90}}}

	one := NilaiRecap([]NilaiGroup{{Kelompok: empty}})
	assert.Equal(t, "Rekapitulasi Nilai per Kelompok", one.Title)
	assert.Contains(t, textOf(one), "Kelompok: Eka")
	assert.Contains(t, textOf(one), "DPL: N/A")

	many := NilaiRecap([]NilaiGroup{scored, {Kelompok: empty}})
	assert.Equal(t, "Rekapitulasi Nilai Keseluruhan", many.Title)
	lines := textOf(many)
	assert.Contains(t, lines, "Kelompok: Budi")
	assert.NotContains(t, lines, "Kelompok: Eka")
}

func TestRender(t *testing.T) {
	k := sampleKelompok()
	docs := map[string]Document{
		"detail": LaporanDetail(sampleLaporan(k)),
		"recap":  KelompokRecap(k, []model.Laporan{sampleLaporan(k)}, ""),
		"nilai":  NilaiRecap([]NilaiGroup{{Kelompok: k}}),
	}
	for name, d := range docs {
		t.Run(name, func(t *testing.T) {
			var docx bytes.Buffer
			require.NoError(t, RenderDocx(&docx, d))
			assert.True(t, bytes.HasPrefix(docx.Bytes(), []byte("PK")))

			var pdf bytes.Buffer
			require.NoError(t, RenderPDF(&pdf, d))
			assert.True(t, bytes.HasPrefix(pdf.Bytes(), []byte("%PDF")))
		})
	}
}
