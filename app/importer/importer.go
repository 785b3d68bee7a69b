// Package importer reads bulk user spreadsheets and produces their
// templates.
package importer

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
)

var columns = map[string][]string{
	model.RoleMahasiswa: {"nama_lengkap", "email", "nim", "password_default", "prodi", "dpl_email"},
	model.RoleDPL:       {"nama_lengkap", "email", "password_default"},
}

// Columns returns the header a sheet for role must carry.
func Columns(role string) ([]string, bool) {
	cols, ok := columns[role]
	return cols, ok
}

// Row is one data line keyed by column name. Line is the 1-based sheet
// row, header included, so messages point at what the user sees.
type Row struct {
	Line   int
	Values map[string]string
}

func (r Row) Get(col string) string {
	return strings.TrimSpace(r.Values[col])
}

// Parse reads the first sheet and checks the header for role's columns.
func Parse(r io.Reader, role string) ([]Row, error) {
	required, ok := Columns(role)
	if !ok {
		return nil, fmt.Errorf("role %q tidak mendukung impor", role)
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "file bukan xlsx yang valid")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("file tidak memiliki sheet")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "baca sheet")
	}
	if len(rows) == 0 {
		return nil, errors.New("sheet kosong")
	}

	header := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, col := range required {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("kolom wajib tidak ditemukan: %s", strings.Join(missing, ", "))
	}

	var out []Row
	for i, cells := range rows[1:] {
		values := make(map[string]string, len(required))
		blank := true
		for _, col := range required {
			idx := header[col]
			if idx < len(cells) {
				values[col] = cells[idx]
				if strings.TrimSpace(cells[idx]) != "" {
					blank = false
				}
			}
		}
		if blank {
			continue
		}
		out = append(out, Row{Line: i + 2, Values: values})
	}
	return out, nil
}

// Template builds an xlsx with the header row for role and one example line.
func Template(role string) ([]byte, error) {
	cols, ok := Columns(role)
	if !ok {
		return nil, fmt.Errorf("role %q tidak mendukung impor", role)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	example := map[string]string{
		"nama_lengkap":     "Nama Lengkap",
		"email":            "nama@example.com",
		"nim":              "2024001",
		"password_default": "rahasia123",
		"prodi":            "Pendidikan Agama Islam",
		"dpl_email":        "dpl@example.com",
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "buat style")
	}

	for i, col := range cols {
		head, _ := excelize.CoordinatesToCellName(i+1, 1)
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(sheet, head, col); err != nil {
			return nil, errors.Wrap(err, "tulis header")
		}
		if err := f.SetCellValue(sheet, cell, example[col]); err != nil {
			return nil, errors.Wrap(err, "tulis contoh")
		}
		colName, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, colName, colName, 22)
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return nil, errors.Wrap(err, "set style header")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "tulis xlsx")
	}
	return buf.Bytes(), nil
}
