package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Anggota is one roster entry; members are not users of the portal.
type Anggota struct {
	Nama  string `json:"nama" validate:"required"`
	NIM   string `json:"nim" validate:"required"`
	Prodi string `json:"prodi" validate:"required"`
}

type Kelompok struct {
	ID        uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	KetuaID   uuid.UUID                   `gorm:"type:uuid;uniqueIndex;not null" json:"ketua_id"`
	DPLID     *uuid.UUID                  `gorm:"column:dpl_id;type:uuid;index" json:"dpl_id,omitempty"`
	Anggota   datatypes.JSONSlice[Anggota] `gorm:"type:jsonb" json:"anggota"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`

	// Relasi
	Ketua *User `gorm:"foreignKey:KetuaID" json:"ketua,omitempty"`
	DPL   *User `gorm:"foreignKey:DPLID" json:"dpl,omitempty"`
}

func (Kelompok) TableName() string { return "kelompok_mahasiswa" }

func (k Kelompok) KetuaName() string {
	if k.Ketua != nil && k.Ketua.FullName != "" {
		return k.Ketua.FullName
	}
	return "Tanpa Nama"
}

func (k Kelompok) DPLName() string {
	if k.DPL != nil && k.DPL.FullName != "" {
		return k.DPL.FullName
	}
	return "Belum Ditugaskan"
}

// HasMember reports whether nim belongs to the leader or a roster entry.
func (k Kelompok) HasMember(nim string) bool {
	if nim == "" {
		return false
	}
	if k.Ketua != nil && k.Ketua.NIM == nim {
		return true
	}
	for _, a := range k.Anggota {
		if a.NIM == nim {
			return true
		}
	}
	return false
}

type AssignDPLRequest struct {
	DPLID uuid.UUID `json:"dpl_id" validate:"required"`
}

type ReplaceAnggotaRequest struct {
	Anggota []Anggota `json:"anggota" validate:"dive"`
}

type KelompokResponse struct {
	ID        uuid.UUID     `json:"id"`
	Ketua     *UserResponse `json:"ketua,omitempty"`
	DPL       *UserResponse `json:"dpl,omitempty"`
	Anggota   []Anggota     `json:"anggota"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func NewKelompokResponse(k Kelompok) KelompokResponse {
	res := KelompokResponse{
		ID:        k.ID,
		Anggota:   []Anggota(k.Anggota),
		CreatedAt: k.CreatedAt,
		UpdatedAt: k.UpdatedAt,
	}
	if res.Anggota == nil {
		res.Anggota = []Anggota{}
	}
	if k.Ketua != nil {
		u := NewUserResponse(*k.Ketua)
		res.Ketua = &u
	}
	if k.DPL != nil {
		u := NewUserResponse(*k.DPL)
		res.DPL = &u
	}
	return res
}
