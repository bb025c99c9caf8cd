package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db, err := Open("sqlite", "file:dbtest?mode=memory&cache=shared")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, sqlDB.Close())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}
