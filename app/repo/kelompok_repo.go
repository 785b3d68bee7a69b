package repo

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
)

type KelompokRepo struct {
	DB *gorm.DB
}

func NewKelompokRepo(db *gorm.DB) *KelompokRepo {
	return &KelompokRepo{DB: db}
}

// expanded loads ketua (with prodi) and dpl, mirroring the relation
// expansion every kelompok screen asks for.
func (r *KelompokRepo) expanded(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Preload("Ketua.Prodi").
		Preload("DPL")
}

func (r *KelompokRepo) Create(ctx context.Context, k *model.Kelompok) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	if k.Anggota == nil {
		k.Anggota = datatypes.JSONSlice[model.Anggota]{}
	}
	err := r.DB.WithContext(ctx).Omit("Ketua", "DPL").Create(k).Error
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return errors.Wrap(err, "create kelompok")
}

func (r *KelompokRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Kelompok, error) {
	var k model.Kelompok
	if err := r.expanded(ctx).First(&k, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &k, nil
}

func (r *KelompokRepo) FindByKetuaID(ctx context.Context, ketuaID uuid.UUID) (*model.Kelompok, error) {
	var k model.Kelompok
	if err := r.expanded(ctx).First(&k, "ketua_id = ?", ketuaID).Error; err != nil {
		return nil, notFound(err)
	}
	return &k, nil
}

// FindByMemberNIM matches the leader's nim or any roster entry.
func (r *KelompokRepo) FindByMemberNIM(ctx context.Context, nim string) (*model.Kelompok, error) {
	member, err := json.Marshal([]map[string]string{{"nim": nim}})
	if err != nil {
		return nil, err
	}

	var k model.Kelompok
	err = r.expanded(ctx).
		Select("kelompok_mahasiswa.*").
		Joins("JOIN users ketua ON ketua.id = kelompok_mahasiswa.ketua_id").
		Where("ketua.nim = ? OR kelompok_mahasiswa.anggota @> ?", nim, string(member)).
		First(&k).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &k, nil
}

func (r *KelompokRepo) FindAll(ctx context.Context) ([]model.Kelompok, error) {
	var list []model.Kelompok
	err := r.expanded(ctx).Order("created_at").Find(&list).Error
	return list, errors.Wrap(err, "find kelompok")
}

func (r *KelompokRepo) FindByDPL(ctx context.Context, dplID uuid.UUID) ([]model.Kelompok, error) {
	var list []model.Kelompok
	err := r.expanded(ctx).Where("dpl_id = ?", dplID).Order("created_at").Find(&list).Error
	return list, errors.Wrap(err, "find kelompok by dpl")
}

func (r *KelompokRepo) UpdateAnggota(ctx context.Context, id uuid.UUID, anggota []model.Anggota) error {
	res := r.DB.WithContext(ctx).Model(&model.Kelompok{}).
		Where("id = ?", id).
		Update("anggota", datatypes.JSONSlice[model.Anggota](anggota))
	if res.Error != nil {
		return errors.Wrap(res.Error, "update anggota")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *KelompokRepo) AssignDPL(ctx context.Context, id uuid.UUID, dplID uuid.UUID) error {
	res := r.DB.WithContext(ctx).Model(&model.Kelompok{}).
		Where("id = ?", id).
		Update("dpl_id", dplID)
	if res.Error != nil {
		return errors.Wrap(res.Error, "assign dpl")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *KelompokRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&model.Kelompok{}, "id = ?", id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete kelompok")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
