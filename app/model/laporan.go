package model

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LaporanStatus string

const (
	StatusMenunggu  LaporanStatus = "Menunggu Persetujuan"
	StatusDisetujui LaporanStatus = "Disetujui"
	StatusRevisi    LaporanStatus = "Revisi"
)

func (s LaporanStatus) Valid() bool {
	switch s {
	case StatusMenunggu, StatusDisetujui, StatusRevisi:
		return true
	}
	return false
}

// LaporanReference is the relational half of a laporan: ownership, status
// and review trail. The narrative lives in LaporanMongo.
type LaporanReference struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	KelompokID uuid.UUID     `gorm:"type:uuid;index;not null" json:"kelompok_id"`
	BidangID   *uuid.UUID    `gorm:"type:uuid" json:"bidang_penelitian_id,omitempty"`
	MongoID    string        `gorm:"column:mongo_laporan_id;size:24;not null" json:"mongo_laporan_id"`
	Status     LaporanStatus `gorm:"size:30;index;not null" json:"status"`
	CatatanDPL string        `gorm:"column:catatan_dpl;type:text" json:"catatan_dpl,omitempty"`
	ReviewedBy *uuid.UUID    `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time    `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time     `json:"created"`
	UpdatedAt  time.Time     `json:"updated"`

	// Relasi
	Kelompok *Kelompok        `gorm:"foreignKey:KelompokID" json:"kelompok,omitempty"`
	Bidang   *BidangPenelitian `gorm:"foreignKey:BidangID" json:"bidang_penelitian,omitempty"`
}

func (LaporanReference) TableName() string { return "laporan_references" }

type LaporanMongo struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	KelompokID          string             `bson:"kelompokId" json:"kelompokId"`
	JudulKegiatan       string             `bson:"judulKegiatan" json:"judulKegiatan"`
	TanggalKegiatan     time.Time          `bson:"tanggalKegiatan" json:"tanggalKegiatan"`
	TempatPelaksanaan   string             `bson:"tempatPelaksanaan" json:"tempatPelaksanaan"`
	Narasumber          string             `bson:"narasumber,omitempty" json:"narasumber,omitempty"`
	UnsurTerlibat       string             `bson:"unsurTerlibat,omitempty" json:"unsurTerlibat,omitempty"`
	DeskripsiKegiatan   string             `bson:"deskripsiKegiatan" json:"deskripsiKegiatan"`
	RencanaTindakLanjut string             `bson:"rencanaTindakLanjut,omitempty" json:"rencanaTindakLanjut,omitempty"`
	MahasiswaTerlibat   []string           `bson:"mahasiswaTerlibat" json:"mahasiswaTerlibat"`
	DokumenPendukung    []Attachment       `bson:"dokumenPendukung" json:"dokumenPendukung"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type Attachment struct {
	FileName   string    `bson:"fileName" json:"file_name"`
	FileURL    string    `bson:"fileUrl" json:"file_url"`
	FileType   string    `bson:"fileType" json:"file_type"`
	UploadedAt time.Time `bson:"uploadedAt" json:"uploaded_at"`
}

// LaporanContent is the editable narrative of a laporan.
type LaporanContent struct {
	JudulKegiatan       string    `json:"judul_kegiatan"`
	TanggalKegiatan     time.Time `json:"tanggal_kegiatan"`
	TempatPelaksanaan   string    `json:"tempat_pelaksanaan"`
	Narasumber          string    `json:"narasumber"`
	UnsurTerlibat       string    `json:"unsur_terlibat"`
	DeskripsiKegiatan   string    `json:"deskripsi_kegiatan"`
	RencanaTindakLanjut string    `json:"rencana_tindak_lanjut"`
	MahasiswaTerlibat   []string  `json:"mahasiswa_terlibat"`
}

// Laporan is a reference row joined with its content document.
type Laporan struct {
	ID               uuid.UUID         `json:"id"`
	KelompokID       uuid.UUID         `json:"kelompok_id"`
	BidangID         *uuid.UUID        `json:"bidang_penelitian_id,omitempty"`
	MongoID          string            `json:"mongo_laporan_id"`
	Status           LaporanStatus     `json:"status"`
	CatatanDPL       string            `json:"catatan_dpl,omitempty"`
	ReviewedBy       *uuid.UUID        `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time        `json:"reviewed_at,omitempty"`
	DokumenPendukung []Attachment      `json:"dokumen_pendukung"`
	CreatedAt        time.Time         `json:"created"`
	UpdatedAt        time.Time         `json:"updated"`
	Kelompok         *Kelompok         `json:"kelompok,omitempty"`
	Bidang           *BidangPenelitian `json:"bidang_penelitian,omitempty"`
	LaporanContent
}

func (l Laporan) BidangName() string {
	if l.Bidang != nil && l.Bidang.Name != "" {
		return l.Bidang.Name
	}
	return "-"
}

type LaporanFilter struct {
	KelompokID *uuid.UUID
	DPLID      *uuid.UUID
	Statuses   []LaporanStatus
	Since      *time.Time
}

// LaporanForm is bound from multipart form values. mahasiswa_terlibat and
// dokumen_pendukung are repeated fields read separately.
type LaporanForm struct {
	JudulKegiatan       string `form:"judul_kegiatan" validate:"required,max=255"`
	TanggalKegiatan     string `form:"tanggal_kegiatan" validate:"required,datetime=2006-01-02"`
	BidangID            string `form:"bidang_penelitian" validate:"omitempty,uuid"`
	TempatPelaksanaan   string `form:"tempat_pelaksanaan" validate:"required"`
	Narasumber          string `form:"narasumber"`
	UnsurTerlibat       string `form:"unsur_terlibat"`
	DeskripsiKegiatan   string `form:"deskripsi_kegiatan" validate:"required"`
	RencanaTindakLanjut string `form:"rencana_tindak_lanjut"`
}

type ReviewRequest struct {
	Status     LaporanStatus `json:"status" validate:"required,oneof=Disetujui Revisi"`
	CatatanDPL string        `json:"catatan_dpl" validate:"required_if=Status Revisi"`
}

type LaporanListItem struct {
	ID            uuid.UUID     `json:"id"`
	JudulKegiatan string        `json:"judul_kegiatan"`
	Status        LaporanStatus `json:"status"`
	KetuaNama     string        `json:"ketua_nama"`
	DPLNama       string        `json:"dpl_nama"`
	Created       time.Time     `json:"created"`
	Updated       time.Time     `json:"updated"`
}

func NewLaporanListItem(l Laporan) LaporanListItem {
	item := LaporanListItem{
		ID:            l.ID,
		JudulKegiatan: l.JudulKegiatan,
		Status:        l.Status,
		Created:       l.CreatedAt,
		Updated:       l.UpdatedAt,
	}
	if l.Kelompok != nil {
		item.KetuaNama = l.Kelompok.KetuaName()
		item.DPLNama = l.Kelompok.DPLName()
	}
	return item
}

type DPLDashboard struct {
	Menunggu       int               `json:"menunggu"`
	Revisi         int               `json:"revisi"`
	Disetujui      int               `json:"disetujui"`
	TotalBimbingan int               `json:"total_bimbingan"`
	PerluTindakan  []LaporanListItem `json:"perlu_tindakan"`
}
