package database

import (
	"testing"

	"github.com/codeready-toolchain/remedy/pkg/database"
	"github.com/codeready-toolchain/remedy/test/util"
)

// NewTestClient creates a test database client.
// In CI (when CI_DATABASE_URL is set): connects to external PostgreSQL service container.
// In local dev: spins up a testcontainer with PostgreSQL.
// The schema and connections are automatically cleaned up when the test ends.
func NewTestClient(t *testing.T) *database.Client {
	// Use shared test database setup; migrations run inside.
	// Note: cleanup (schema drop and connection close) is handled by SetupTestDatabase
	db := util.SetupTestDatabase(t)
	return database.NewClientFromDB(db)
}
