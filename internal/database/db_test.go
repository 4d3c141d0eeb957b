package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDBInMemory(t *testing.T) {
	db, err := NewDB("file::memory:?cache=shared", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Ping(context.Background(), db))

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestIsMemory(t *testing.T) {
	assert.True(t, isMemory(":memory:"))
	assert.True(t, isMemory("file::memory:?cache=shared"))
	assert.True(t, isMemory("file:test?mode=memory&cache=shared"))
	assert.False(t, isMemory("file:mgnrega.db?cache=shared"))
}
