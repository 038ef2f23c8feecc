package cli

import (
	"io"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/trackforge/s2s/internal/database"
)

func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	originalStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fnErr := fn()

	_ = w.Close()
	os.Stdout = originalStdout

	output, readErr := io.ReadAll(r)
	require.NoError(t, readErr)
	_ = r.Close()

	return string(output), fnErr
}

func stubDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	originalDB := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = originalDB
		_ = db.Close()
	})
	return mock
}

func stubConnectClose(t *testing.T) {
	t.Helper()
	originalConnect := connectDatabase
	originalClose := closeDatabase
	connectDatabase = func() error { return nil }
	closeDatabase = func() error { return nil }
	t.Cleanup(func() {
		connectDatabase = originalConnect
		closeDatabase = originalClose
	})
}
