package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
)

type NilaiRepo struct {
	DB *gorm.DB
}

func NewNilaiRepo(db *gorm.DB) *NilaiRepo {
	return &NilaiRepo{DB: db}
}

func (r *NilaiRepo) FindByKelompok(ctx context.Context, kelompokID uuid.UUID) ([]model.Nilai, error) {
	var list []model.Nilai
	err := r.DB.WithContext(ctx).
		Where("kelompok_id = ?", kelompokID).
		Order("mahasiswa_nama").
		Find(&list).Error
	return list, errors.Wrap(err, "find nilai by kelompok")
}

func (r *NilaiRepo) FindAll(ctx context.Context) ([]model.Nilai, error) {
	var list []model.Nilai
	err := r.DB.WithContext(ctx).Order("created_at").Find(&list).Error
	return list, errors.Wrap(err, "find nilai")
}

func (r *NilaiRepo) Create(ctx context.Context, n *model.Nilai) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	err := r.DB.WithContext(ctx).Create(n).Error
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return errors.Wrap(err, "create nilai")
}

func (r *NilaiRepo) Update(ctx context.Context, n *model.Nilai) error {
	res := r.DB.WithContext(ctx).Model(&model.Nilai{ID: n.ID}).
		Select("mahasiswa_nama", "dpl_id", "nilai_akhir", "catatan", "updated_at").
		Updates(n)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update nilai")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
