package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/task_manager/internal/db"
	"github.com/Skotchmaster/task_manager/internal/models"
)

// NewSQLite opens a private migrated in-memory database for one test.
func NewSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	ctx := context.Background()
	gdb, err := db.Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

func SeedCategory(t *testing.T, gdb *gorm.DB, name string) models.Category {
	t.Helper()

	c := models.Category{Name: name}
	require.NoError(t, gdb.Create(&c).Error)
	return c
}
