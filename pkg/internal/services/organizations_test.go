package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	localCache "git.solsynth.dev/hypernet/janitor/pkg/internal/cache"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/database"
)

func TestTargetedLookupReadsFreshPlanAfterFlush(t *testing.T) {
	require.NoError(t, localCache.NewStore())
	db, mock := newMockDB(t)
	database.C = db

	// Even when the cache held an older plan, a flushed slug must be served
	// from the database row.
	FlushOrganizationCache("acme")

	rows := sqlmock.NewRows([]string{"id", "name", "slug", "plan"}).
		AddRow(4, "Acme", "acme", "pro")
	mock.ExpectQuery(`SELECT (.+) FROM "organizations" WHERE "organizations"\."slug" = \$1`).
		WillReturnRows(rows)

	org, err := GetOrganizationBySlug("acme")
	require.NoError(t, err)
	assert.Equal(t, "pro", org.Plan)
	require.NoError(t, mock.ExpectationsWereMet())
}
