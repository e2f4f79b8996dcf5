package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMigrations(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestRunMigrationsAppliesPending(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"0001_a.sql": "CREATE TABLE a (id INT);",
		"0002_b.sql": "CREATE TABLE b (id INT);",
		"notes.txt":  "ignored",
	})
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_a.sql"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE b (id INT);")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (name) VALUES ($1)")).
		WithArgs("0002_b.sql").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ran, err := RunMigrations(context.Background(), db, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"0002_b.sql"}, ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsRollsBackFailedFile(t *testing.T) {
	dir := writeMigrations(t, map[string]string{"0001_a.sql": "CREATE TABLE a (id INT);"})
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE a (id INT);")).WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	ran, err := RunMigrations(context.Background(), db, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0001_a.sql")
	assert.Empty(t, ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadMigrationsFallsBackToEmbedded(t *testing.T) {
	for _, dir := range []string{"", filepath.Join(t.TempDir(), "missing")} {
		files, err := loadMigrations(dir)
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, "0001_init.sql", files[0].name)
		assert.Equal(t, "0002_seed_questions.sql", files[1].name)
		assert.Contains(t, string(files[0].data), "CREATE TABLE")
	}
}
