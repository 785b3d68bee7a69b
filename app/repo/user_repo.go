package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
)

type UserRepo struct {
	DB *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{
		DB: db,
	}
}

var userSortWhitelist = map[string]string{
	"created_at": "created_at",
	"email":      "email",
	"full_name":  "full_name",
	"nim":        "nim",
	"role":       "role",
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.IsActive = true

	err := r.DB.WithContext(ctx).Create(user).Error
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return errors.Wrap(err, "create user")
}

func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Preload("Prodi").
		Where("is_active = ?", true).
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Preload("Prodi").
		Where("email = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(email)), true).
		First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *UserRepo) FindAll(ctx context.Context, f model.UserFilter) ([]model.User, int64, error) {
	var total int64

	q := r.DB.WithContext(ctx).Model(&model.User{}).Where("is_active = ?", true)
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("full_name ILIKE ? OR email ILIKE ? OR nim ILIKE ?", like, like, like)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count users")
	}

	order := strings.ToLower(f.Order)
	if order != "asc" && order != "desc" {
		order = "desc"
	}
	column, ok := userSortWhitelist[f.SortBy]
	if !ok {
		column = "created_at"
	}

	var users []model.User
	err := q.Preload("Prodi").
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: order == "desc"}).
		Limit(f.Limit).
		Offset((f.Page - 1) * f.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "find users")
	}
	return users, total, nil
}

func (r *UserRepo) FindByRole(ctx context.Context, role string) ([]model.User, error) {
	var users []model.User
	err := r.DB.WithContext(ctx).Preload("Prodi").
		Where("role = ? AND is_active = ?", role, true).
		Order("full_name").
		Find(&users).Error
	return users, errors.Wrap(err, "find users by role")
}

func (r *UserRepo) CountByRole(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Role  string
		Total int
	}
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Select("role, COUNT(*) AS total").
		Where("is_active = ?", true).
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "count users by role")
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Total
	}
	return counts, nil
}

func (r *UserRepo) Update(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	err := r.DB.WithContext(ctx).Model(user).
		Select("email", "password_hash", "full_name", "nim", "role", "prodi_id", "refresh_token", "updated_at").
		Updates(user).Error
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return errors.Wrap(err, "update user")
}

func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&model.User{}, "id = ?", id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete user")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) AddBlacklistToken(ctx context.Context, token model.BlacklistedToken) error {
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&token).Error
	return errors.Wrap(err, "blacklist token")
}

func (r *UserRepo) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.BlacklistedToken{}).
		Where("token = ? AND expires_at > ?", token, time.Now()).
		Count(&count).Error
	return count > 0, errors.Wrap(err, "check blacklist")
}

func (r *UserRepo) ClearRefreshToken(ctx context.Context, userID uuid.UUID) error {
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("refresh_token", "").Error
	return errors.Wrap(err, "clear refresh token")
}
