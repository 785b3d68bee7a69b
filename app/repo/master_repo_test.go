package repo

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
)

// dryRunDB renders postgres statements without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=lppm dbname=lppm sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestMasterRepoNameCheckIgnoresCase(t *testing.T) {
	db := dryRunDB(t)

	t.Run("prodi", func(t *testing.T) {
		r := NewMasterRepo[model.ProgramStudi](db, "nama_prodi")
		item := model.ProgramStudi{ID: uuid.New(), Name: "PAI"}
		sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			var n int64
			return r.sameName(tx, item).Count(&n)
		})
		assert.Contains(t, sql, `FROM "program_studi"`)
		assert.Contains(t, sql, "LOWER(nama_prodi) = LOWER('PAI')")
		assert.Contains(t, sql, "id <> '"+item.ID.String()+"'")
	})

	t.Run("bidang", func(t *testing.T) {
		r := NewMasterRepo[model.BidangPenelitian](db, "nama_bidang")
		item := model.BidangPenelitian{ID: uuid.New(), Name: "Dakwah"}
		sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
			var n int64
			return r.sameName(tx, item).Count(&n)
		})
		assert.Contains(t, sql, `FROM "bidang_penelitian"`)
		assert.Contains(t, sql, "LOWER(nama_bidang) = LOWER('Dakwah')")
		assert.Contains(t, sql, "id <> '"+item.ID.String()+"'")
	})
}
