package model

import (
	"time"

	"github.com/google/uuid"
)

type Nilai struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	KelompokID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_nilai_kelompok_nim;not null" json:"kelompok"`
	MahasiswaNIM  string    `gorm:"column:mahasiswa_nim;size:30;uniqueIndex:idx_nilai_kelompok_nim;not null" json:"mahasiswa_nim"`
	MahasiswaNama string    `gorm:"column:mahasiswa_nama;size:150" json:"mahasiswa_nama"`
	DPLID         uuid.UUID `gorm:"column:dpl_id;type:uuid" json:"dpl"`
	NilaiAkhir    float64   `gorm:"column:nilai_akhir" json:"nilai_akhir"`
	Catatan       string    `gorm:"type:text" json:"catatan"`
	CreatedAt     time.Time `json:"created"`
	UpdatedAt     time.Time `json:"updated"`
}

func (Nilai) TableName() string { return "penilaian_mahasiswa" }

// MahasiswaNilai is one roster row merged with its score, if any.
type MahasiswaNilai struct {
	NIM        string     `json:"nim"`
	Nama       string     `json:"nama"`
	Prodi      string     `json:"prodi"`
	NilaiID    *uuid.UUID `json:"nilai_id,omitempty"`
	NilaiAkhir float64    `json:"nilai_akhir"`
	Catatan    string     `json:"catatan"`
}

type NilaiInput struct {
	NIM        string  `json:"nim" validate:"required"`
	Nama       string  `json:"nama" validate:"required"`
	NilaiAkhir float64 `json:"nilai_akhir" validate:"gte=0,lte=100"`
	Catatan    string  `json:"catatan"`
}

type SaveNilaiRequest struct {
	Nilai []NilaiInput `json:"nilai" validate:"required,min=1,dive"`
}

type SaveNilaiResult struct {
	Saved  int      `json:"saved"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors,omitempty"`
}

type NilaiKelompokResponse struct {
	Kelompok  KelompokResponse `json:"kelompok"`
	Mahasiswa []MahasiswaNilai `json:"mahasiswa"`
}

type NilaiSayaResponse struct {
	NamaKelompok string  `json:"nama_kelompok"`
	NamaDPL      string  `json:"nama_dpl"`
	Nilai        []Nilai `json:"nilai"`
}
