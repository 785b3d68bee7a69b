package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
)

var (
	ErrNotFound  = errors.New("data tidak ditemukan")
	ErrDuplicate = errors.New("data sudah ada")
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindAll(ctx context.Context, f model.UserFilter) ([]model.User, int64, error)
	FindByRole(ctx context.Context, role string) ([]model.User, error)
	CountByRole(ctx context.Context) (map[string]int, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddBlacklistToken(ctx context.Context, token model.BlacklistedToken) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	ClearRefreshToken(ctx context.Context, userID uuid.UUID) error
}

// MasterRepository covers the flat name-only tables.
type MasterRepository[T any] interface {
	Create(ctx context.Context, item *T) error
	FindAll(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type (
	ProdiRepository  = MasterRepository[model.ProgramStudi]
	BidangRepository = MasterRepository[model.BidangPenelitian]
)

type KelompokRepository interface {
	Create(ctx context.Context, k *model.Kelompok) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Kelompok, error)
	FindByKetuaID(ctx context.Context, ketuaID uuid.UUID) (*model.Kelompok, error)
	FindByMemberNIM(ctx context.Context, nim string) (*model.Kelompok, error)
	FindAll(ctx context.Context) ([]model.Kelompok, error)
	FindByDPL(ctx context.Context, dplID uuid.UUID) ([]model.Kelompok, error)
	UpdateAnggota(ctx context.Context, id uuid.UUID, anggota []model.Anggota) error
	AssignDPL(ctx context.Context, id uuid.UUID, dplID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type LaporanRepository interface {
	Create(ctx context.Context, l *model.Laporan) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Laporan, error)
	FindAll(ctx context.Context, f model.LaporanFilter) ([]model.Laporan, error)
	Update(ctx context.Context, l *model.Laporan) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type NilaiRepository interface {
	FindByKelompok(ctx context.Context, kelompokID uuid.UUID) ([]model.Nilai, error)
	FindAll(ctx context.Context) ([]model.Nilai, error)
	Create(ctx context.Context, n *model.Nilai) error
	Update(ctx context.Context, n *model.Nilai) error
}

// Repositories bundles every store the services need.
type Repositories struct {
	Users    UserRepository
	Prodi    ProdiRepository
	Bidang   BidangRepository
	Kelompok KelompokRepository
	Laporan  LaporanRepository
	Nilai    NilaiRepository
}

func NewRepositories(pgDB *gorm.DB, mongoDB *mongo.Database) *Repositories {
	return &Repositories{
		Users:    NewUserRepo(pgDB),
		Prodi:    NewMasterRepo[model.ProgramStudi](pgDB, "nama_prodi"),
		Bidang:   NewMasterRepo[model.BidangPenelitian](pgDB, "nama_bidang"),
		Kelompok: NewKelompokRepo(pgDB),
		Laporan:  NewLaporanRepo(pgDB, mongoDB),
		Nilai:    NewNilaiRepo(pgDB),
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
