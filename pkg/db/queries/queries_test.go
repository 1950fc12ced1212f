package queries

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Tracksy-dev/passer/pkg/db"
	"github.com/jmoiron/sqlx"
)

// newMockDB swaps the package-level database handle for a sqlmock-backed one
// for the duration of a test.
func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}

	original := db.DB
	db.DB = sqlx.NewDb(mockDB, "postgres")
	t.Cleanup(func() {
		db.DB.Close()
		db.DB = original
	})
	return mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet database expectations: %v", err)
	}
}
