package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"git.solsynth.dev/hypernet/janitor/pkg/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	failIds map[uint]bool
	purged  []uint
	bytes   int64
}

func (p *fakePurger) PurgeAccount(_ context.Context, acct models.Account) (int64, int64, error) {
	if p.failIds[acct.ID] {
		return 0, 0, errors.New("violates foreign key constraint")
	}
	p.purged = append(p.purged, acct.ID)
	return 1, p.bytes, nil
}

func TestListEligibleUsesGracePeriodCutoff(t *testing.T) {
	db, mock := newMockDB(t)

	now := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	cutoff := now.AddDate(0, 0, -30)

	rows := sqlmock.NewRows([]string{"id", "email_address", "is_active"}).
		AddRow(42, "gone@example.com", false)
	mock.ExpectQuery(`SELECT (.+) FROM "accounts" WHERE deleted_at IS NOT NULL AND deleted_at <= (.+) AND is_active =`).
		WithArgs(cutoff, false).
		WillReturnRows(rows)

	reaper := NewAccountReaper(db, &fakePurger{}, nil, 30, false)
	reaper.now = func() time.Time { return now }

	accounts, err := reaper.ListEligible(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, uint(42), accounts[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunCleanupIsolatesAccountFailures(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "is_active"}).
		AddRow(1, false).
		AddRow(2, false).
		AddRow(3, false)
	mock.ExpectQuery(`SELECT (.+) FROM "accounts"`).WillReturnRows(rows)

	purger := &fakePurger{failIds: map[uint]bool{2: true}, bytes: 100}
	reaper := NewAccountReaper(db, purger, nil, 30, false)

	stats, err := reaper.RunCleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.AccountsEligible)
	assert.Equal(t, int64(2), stats.AccountsDeleted)
	assert.Equal(t, int64(1), stats.AccountsFailed)
	assert.Equal(t, []uint{1, 3}, purger.purged)
}

func TestRunCleanupDryRunNeverPurges(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "is_active"}).
		AddRow(1, false).
		AddRow(2, false)
	mock.ExpectQuery(`SELECT (.+) FROM "accounts"`).WillReturnRows(rows)

	purger := &fakePurger{}
	reaper := NewAccountReaper(db, purger, nil, 30, true)

	stats, err := reaper.RunCleanup(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.DryRun)
	assert.Equal(t, int64(2), stats.AccountsEligible)
	assert.Equal(t, int64(2), stats.AccountsDeleted, "statistics must still preview what would happen")
	assert.Equal(t, int64(0), stats.AccountsFailed)
	assert.Empty(t, purger.purged)
	assert.NoError(t, mock.ExpectationsWereMet())
}
