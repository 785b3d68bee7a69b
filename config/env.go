package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type EnvConfig struct {
	AppName          string
	AppPort          string
	AppEnv           string
	Storage          string
	DBDSN            string
	MongoURI         string
	MongoDB          string
	JWTSecret        string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	UploadDir        string
	MaxUploadMB      int
	SendgridKey      string
	MailFrom         string
	RollbarToken     string
	ScoreConcurrency int
}

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

var Env EnvConfig

// DefaultScoreConcurrency bounds parallel writes of a bulk score save.
const DefaultScoreConcurrency = 4

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("APP_NAME", "LPPM Portal")
	v.SetDefault("APP_PORT", "3000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("STORAGE", StoragePostgres)
	v.SetDefault("MONGO_DB_NAME", "lppm")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_TTL", 30*time.Minute)
	v.SetDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("MAX_UPLOAD_MB", 10)
	v.SetDefault("MAIL_FROM", "noreply@localhost")
	v.SetDefault("SCORE_SAVE_CONCURRENCY", DefaultScoreConcurrency)

	v.AutomaticEnv()
	return v
}

func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	v := newViper()

	Env.AppName = v.GetString("APP_NAME")
	Env.AppPort = v.GetString("APP_PORT")
	Env.AppEnv = v.GetString("APP_ENV")
	Env.Storage = strings.ToLower(v.GetString("STORAGE"))
	Env.DBDSN = v.GetString("DB_DSN")
	Env.MongoURI = v.GetString("MONGO_URI")
	Env.MongoDB = v.GetString("MONGO_DB_NAME")
	Env.JWTSecret = v.GetString("JWT_SECRET")
	Env.AccessTokenTTL = v.GetDuration("ACCESS_TOKEN_TTL")
	Env.RefreshTokenTTL = v.GetDuration("REFRESH_TOKEN_TTL")
	Env.UploadDir = v.GetString("UPLOAD_DIR")
	Env.MaxUploadMB = v.GetInt("MAX_UPLOAD_MB")
	Env.SendgridKey = v.GetString("SENDGRID_API_KEY")
	Env.MailFrom = v.GetString("MAIL_FROM")
	Env.RollbarToken = v.GetString("ROLLBAR_TOKEN")
	Env.ScoreConcurrency = v.GetInt("SCORE_SAVE_CONCURRENCY")

	if Env.JWTSecret == "" {
		log.Println("Warning: JWT_SECRET is empty, tokens are signed with an empty key")
	}
}

func GetJWTSecret() string {
	return Env.JWTSecret
}

func IsProduction() bool {
	return Env.AppEnv == "production"
}
