package database

import (
	"testing"

	"sitebooks/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewConnectionSQLite(t *testing.T) {
	db, err := NewConnection("sqlite", "file:dbtest?mode=memory&cache=shared", zap.NewNop())
	require.NoError(t, err)

	for _, m := range model.All() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
}

func TestNewConnectionUnknownDriver(t *testing.T) {
	_, err := NewConnection("oracle", "", zap.NewNop())
	require.Error(t, err)
}
