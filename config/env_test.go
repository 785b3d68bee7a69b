package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnv(t *testing.T) {
	prev := Env
	t.Cleanup(func() { Env = prev })

	t.Setenv("STORAGE", "MEMORY")
	t.Setenv("JWT_SECRET", "rahasia")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("SCORE_SAVE_CONCURRENCY", "2")

	LoadEnv()

	assert.Equal(t, StorageMemory, Env.Storage)
	assert.Equal(t, "rahasia", GetJWTSecret())
	assert.Equal(t, 15*time.Minute, Env.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, Env.RefreshTokenTTL)
	assert.Equal(t, 2, Env.ScoreConcurrency)
	assert.Equal(t, "3000", Env.AppPort)
	assert.Equal(t, 10, Env.MaxUploadMB)
	assert.False(t, IsProduction())
}

func TestNewAppBodyLimit(t *testing.T) {
	prev := Env
	t.Cleanup(func() { Env = prev })

	Env.MaxUploadMB = 0
	assert.Equal(t, 10*1024*1024, NewApp(nil).Config().BodyLimit)

	Env.MaxUploadMB = 3
	assert.Equal(t, 3*1024*1024, NewApp(nil).Config().BodyLimit)
}

func TestScoreConcurrencyDefault(t *testing.T) {
	t.Setenv("SCORE_SAVE_CONCURRENCY", "")
	assert.Equal(t, DefaultScoreConcurrency, newViper().GetInt("SCORE_SAVE_CONCURRENCY"))
	assert.Equal(t, 4, DefaultScoreConcurrency)
}
