package store

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestOpen_CreatesDatabaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exprc.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exprc.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "open #%d", i+1)
		require.NoError(t, s.Close())
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"indexes", "documents", "postings"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %s missing after reopen", table)
	}
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM indexes").Scan(&count))
	assert.Zero(t, count)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/exprc.db")
	assert.Error(t, err)
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name string
		want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.pragmaValue(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMigrations(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	path := filepath.Join(t.TempDir(), "exprc.db")

	s, err := Open(path, WithLogger(zap.New(core)))
	require.NoError(t, err)

	latest := migrations[len(migrations)-1].version
	got, err := s.pragmaValue("user_version")
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(latest), got)
	assert.Equal(t, len(migrations), logs.FilterMessage("Applied migration").Len())

	var name string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'index' AND name = ?", "idx_postings_doc",
	).Scan(&name)
	assert.NoError(t, err, "postings index not created")
	require.NoError(t, s.Close())

	// Reopening an up-to-date database applies nothing.
	core, logs = observer.New(zap.DebugLevel)
	s, err = Open(path, WithLogger(zap.New(core)))
	require.NoError(t, err)
	defer s.Close()
	assert.Zero(t, logs.FilterMessage("Applied migration").Len())
	assert.Equal(t, 1, logs.FilterMessage("Opened store").Len())
}

func TestClose(t *testing.T) {
	t.Run("nil db", func(t *testing.T) {
		assert.NoError(t, (&Store{}).Close())
	})

	t.Run("twice", func(t *testing.T) {
		s, err := Open(filepath.Join(t.TempDir(), "exprc.db"))
		require.NoError(t, err)
		require.NoError(t, s.Close())
		_ = s.Close() // must not panic
	})
}

func TestDB_ReturnsUsableConnection(t *testing.T) {
	s := createTestStore(t)

	db := s.DB()
	require.NotNil(t, db)
	assert.NoError(t, db.Ping())
}
