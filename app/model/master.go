package model

import (
	"time"

	"github.com/google/uuid"
)

type ProgramStudi struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:nama_prodi;size:150;not null;uniqueIndex:idx_program_studi_nama_lower,expression:lower(nama_prodi)" json:"nama_prodi"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProgramStudi) TableName() string { return "program_studi" }

func (p ProgramStudi) Identity() (uuid.UUID, string) { return p.ID, p.Name }

type BidangPenelitian struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:nama_bidang;size:150;not null;uniqueIndex:idx_bidang_penelitian_nama_lower,expression:lower(nama_bidang)" json:"nama_bidang"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BidangPenelitian) TableName() string { return "bidang_penelitian" }

func (b BidangPenelitian) Identity() (uuid.UUID, string) { return b.ID, b.Name }

type ProdiRequest struct {
	Name string `json:"nama_prodi" validate:"required,max=150"`
}

type BidangRequest struct {
	Name string `json:"nama_bidang" validate:"required,max=150"`
}
