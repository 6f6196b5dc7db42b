package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/jobs?sslmode=disable", migrationURL("postgresql://u:p@db:5432/jobs?sslmode=disable"))
	assert.Equal(t, "pgx5://u:p@db/jobs", migrationURL("postgres://u:p@db/jobs"))
	assert.Equal(t, "pgx5://already", migrationURL("pgx5://already"))
}
