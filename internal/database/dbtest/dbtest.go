// Package dbtest opens migrated SQLite databases for package tests.
package dbtest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/config"
	"github.com/Additional-Code/atelier/internal/database"
	"github.com/Additional-Code/atelier/internal/migration"
)

var seq atomic.Int64

// New returns connections to a fresh in-memory database with every migration
// applied. The pool holds a single connection, so transactions never overlap.
// The database lives until the test finishes.
func New(t testing.TB) *database.Connections {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))
	return open(t, config.Database{Driver: "sqlite", WriterDSN: dsn})
}

// NewFile returns connections to a migrated database file in a temporary
// directory, pooled over maxOpen connections so transactions really overlap.
func NewFile(t testing.TB, maxOpen int) *database.Connections {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "atelier.db")
	return open(t, config.Database{
		Driver:       "sqlite",
		WriterDSN:    dsn,
		MaxOpenConns: maxOpen,
		MaxIdleConns: maxOpen,
	})
}

func open(t testing.TB, cfg config.Database) *database.Connections {
	t.Helper()

	conns, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conns.Close() })

	mig, err := migration.NewMigrator("sqlite", conns.Writer, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, mig.Up(context.Background()))

	return conns
}
