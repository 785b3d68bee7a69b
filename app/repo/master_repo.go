package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// MasterItem is a row of a name-only table.
type MasterItem interface {
	Identity() (uuid.UUID, string)
}

// MasterRepo stores a name-only table. Names are unique ignoring case;
// nameColumn drives ordering and the uniqueness check.
type MasterRepo[T MasterItem] struct {
	DB         *gorm.DB
	nameColumn string
}

func NewMasterRepo[T MasterItem](db *gorm.DB, nameColumn string) *MasterRepo[T] {
	return &MasterRepo[T]{DB: db, nameColumn: nameColumn}
}

// sameName selects the other rows whose name equals item's ignoring case.
func (r *MasterRepo[T]) sameName(tx *gorm.DB, item T) *gorm.DB {
	var model T
	id, name := item.Identity()
	return tx.Model(&model).
		Where("LOWER("+r.nameColumn+") = LOWER(?)", name).
		Where("id <> ?", id)
}

func (r *MasterRepo[T]) nameTaken(ctx context.Context, item T) (bool, error) {
	var n int64
	if err := r.sameName(r.DB.WithContext(ctx), item).Count(&n).Error; err != nil {
		return false, errors.Wrapf(err, "check %T name", item)
	}
	return n > 0, nil
}

func (r *MasterRepo[T]) Create(ctx context.Context, item *T) error {
	taken, err := r.nameTaken(ctx, *item)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicate
	}
	err = r.DB.WithContext(ctx).Create(item).Error
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return errors.Wrapf(err, "create %T", item)
}

func (r *MasterRepo[T]) FindAll(ctx context.Context) ([]T, error) {
	var items []T
	err := r.DB.WithContext(ctx).Order(r.nameColumn).Find(&items).Error
	return items, errors.Wrap(err, "find master data")
}

func (r *MasterRepo[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var item T
	if err := r.DB.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (r *MasterRepo[T]) Update(ctx context.Context, item *T) error {
	taken, err := r.nameTaken(ctx, *item)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicate
	}
	res := r.DB.WithContext(ctx).Model(item).Select(r.nameColumn, "updated_at").Updates(item)
	if isDuplicate(res.Error) {
		return ErrDuplicate
	}
	if res.Error != nil {
		return errors.Wrapf(res.Error, "update %T", item)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MasterRepo[T]) Delete(ctx context.Context, id uuid.UUID) error {
	var item T
	res := r.DB.WithContext(ctx).Delete(&item, "id = ?", id)
	if res.Error != nil {
		return errors.Wrap(res.Error, fmt.Sprintf("delete %T", item))
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MasterRepo[T]) Count(ctx context.Context) (int64, error) {
	var total int64
	var item T
	err := r.DB.WithContext(ctx).Model(&item).Count(&total).Error
	return total, errors.Wrap(err, "count master data")
}
