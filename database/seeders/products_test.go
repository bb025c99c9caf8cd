package seeders_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/shashiranjanraj/vendo/database/migrations"
	"github.com/shashiranjanraj/vendo/app/repositories"
	"github.com/shashiranjanraj/vendo/database/seeders"
	"github.com/shashiranjanraj/vendo/pkg/database"
	"github.com/shashiranjanraj/vendo/pkg/migration"
)

func TestSeedIsRepeatable(t *testing.T) {
	db, err := database.Open("sqlite", "file:seeders_test?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, migration.New(db).WithOutput(io.Discard).Run())

	require.NoError(t, seeders.RunAll(db, io.Discard))

	repo := repositories.NewProductRepository(db)
	_, err = repo.TryDecrement(context.Background(), "coke", 4)
	require.NoError(t, err)

	// Seeding again restores the configured stock.
	require.NoError(t, seeders.RunAll(db, io.Discard))

	products, err := repo.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, len(seeders.DefaultProducts()))

	coke, err := repo.FindByID(context.Background(), "coke")
	require.NoError(t, err)
	assert.Equal(t, 10, coke.Stock)
	assert.Equal(t, "1.5", coke.Price.String())
}
