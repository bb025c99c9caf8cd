package repositories_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	_ "github.com/shashiranjanraj/vendo/database/migrations"
	"github.com/shashiranjanraj/vendo/pkg/database"
	"github.com/shashiranjanraj/vendo/pkg/migration"
)

// openDB returns a migrated in-memory database private to the test.
func openDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, migration.New(db).WithOutput(io.Discard).Run())

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

var ctx = context.Background()
