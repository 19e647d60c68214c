package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type codedError int

func (c codedError) Error() string { return fmt.Sprintf("sqlite error %d", int(c)) }
func (c codedError) Code() int     { return int(c) }

func TestSQLiteDSNAddsConcurrencyParams(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{
			name: "file database",
			dsn:  "file:/tmp/atelier.db",
			want: "file:/tmp/atelier.db?_pragma=busy_timeout(5000)&_txlock=immediate&_pragma=journal_mode(WAL)",
		},
		{
			name: "memory database skips wal",
			dsn:  "file:orders?mode=memory&cache=shared",
			want: "file:orders?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_txlock=immediate",
		},
		{
			name: "explicit settings win",
			dsn:  "file:/tmp/atelier.db?_pragma=busy_timeout(100)&_txlock=deferred&_pragma=journal_mode(DELETE)",
			want: "file:/tmp/atelier.db?_pragma=busy_timeout(100)&_txlock=deferred&_pragma=journal_mode(DELETE)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sqliteDSN("sqlite", tt.dsn))
		})
	}
}

func TestSQLiteDSNLeavesOtherDriversAlone(t *testing.T) {
	dsn := "postgres://atelier@localhost/atelier?sslmode=disable"
	assert.Equal(t, dsn, sqliteDSN("postgres", dsn))
}

func TestIsBusy(t *testing.T) {
	assert.True(t, IsBusy(codedError(sqliteBusy)))
	assert.True(t, IsBusy(fmt.Errorf("insert order: %w", codedError(sqliteLocked))))
	// extended codes keep the primary code in the low byte
	assert.True(t, IsBusy(codedError(517)))
	assert.True(t, IsBusy(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, IsBusy(codedError(sqliteConstraintUnique)))
	assert.False(t, IsBusy(nil))
}
