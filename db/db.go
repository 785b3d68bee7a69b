package db

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo/memory"
	"github.com/suhendararyadi/lppm-iaipi-mhs/config"
)

var (
	DB    *gorm.DB
	Mongo *mongo.Database
)

// Connect opens the configured storage and returns the repositories on top
// of it. STORAGE=memory skips both databases.
func Connect(ctx context.Context) (*repo.Repositories, error) {
	if config.Env.Storage == config.StorageMemory {
		log.Println("Using in-memory storage, data is lost on restart")
		return memory.NewStore().Repositories(), nil
	}

	if err := connectPostgres(); err != nil {
		return nil, err
	}
	if err := connectMongo(ctx); err != nil {
		return nil, err
	}
	return repo.NewRepositories(DB, Mongo), nil
}

func connectPostgres() error {
	var err error
	DB, err = gorm.Open(postgres.Open(config.Env.DBDSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return errors.Wrap(err, "connect to PostgreSQL")
	}

	log.Println("Connected to PostgreSQL successfully")
	return nil
}

func connectMongo(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.Env.MongoURI))
	if err != nil {
		return errors.Wrap(err, "connect to MongoDB")
	}

	if err := client.Ping(ctx, nil); err != nil {
		return errors.Wrap(err, "ping MongoDB")
	}

	Mongo = client.Database(config.Env.MongoDB)

	log.Println("Connected to MongoDB successfully")
	return nil
}

// Migrate creates the relational tables and the document indexes.
func Migrate(ctx context.Context) error {
	if DB == nil || Mongo == nil {
		return errors.New("database belum terhubung")
	}

	err := DB.WithContext(ctx).AutoMigrate(
		&model.ProgramStudi{},
		&model.BidangPenelitian{},
		&model.User{},
		&model.BlacklistedToken{},
		&model.Kelompok{},
		&model.LaporanReference{},
		&model.Nilai{},
	)
	if err != nil {
		return errors.Wrap(err, "auto migrate")
	}

	_, err = Mongo.Collection("laporans").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "kelompokId", Value: 1}},
	})
	if err != nil {
		return errors.Wrap(err, "create laporan index")
	}

	log.Println("Migration finished")
	return nil
}

func Close(ctx context.Context) {
	if DB != nil {
		if sqlDB, err := DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if Mongo != nil {
		_ = Mongo.Client().Disconnect(ctx)
	}
}
