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

// fakeArtifactStore plays both the scanner and the executor against an
// in-memory artifact set, so drain/idempotence behavior is observable.
type fakeArtifactStore struct {
	artifacts map[uint]models.ContentArtifact
	sizes     map[uint]int64
	failIds   map[uint]bool

	listCalls   int
	lastCutoff  time.Time
	deleteCalls int
}

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{
		artifacts: make(map[uint]models.ContentArtifact),
		sizes:     make(map[uint]int64),
		failIds:   make(map[uint]bool),
	}
}

func (f *fakeArtifactStore) add(id uint, size int64) {
	a := models.ContentArtifact{}
	a.ID = id
	f.artifacts[id] = a
	f.sizes[id] = size
}

func (f *fakeArtifactStore) ListExpired(_ context.Context, cutoff time.Time, _ *uint) ([]models.ContentArtifact, error) {
	f.listCalls++
	f.lastCutoff = cutoff
	var out []models.ContentArtifact
	for _, a := range f.artifacts {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeArtifactStore) DeleteArtifact(_ context.Context, meta models.ContentArtifact, _ string) Outcome {
	f.deleteCalls++
	if f.failIds[meta.ID] {
		return Outcome{ArtifactID: meta.ID, Err: errors.New("backend unreachable")}
	}
	freed := f.sizes[meta.ID]
	delete(f.artifacts, meta.ID)
	return Outcome{ArtifactID: meta.ID, BytesFreed: freed}
}

func orgWithPlan(id uint, plan string) models.Organization {
	org := models.Organization{Plan: plan}
	org.ID = id
	return org
}

func TestCleanupOrganizationUnlimitedSkipsScan(t *testing.T) {
	store := newFakeArtifactStore()
	store.add(1, 100)

	c := NewCleanupCoordinator(nil, NewPolicyResolver(DefaultRetentionWindows()), store, store, nil, false)

	run, err := c.CleanupOrganization(context.Background(), orgWithPlan(1, "enterprise"), false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), run.ArtifactsFound)
	assert.Equal(t, int64(0), run.ArtifactsDeleted)
	assert.Equal(t, -1, run.RetentionDays)
	assert.Equal(t, 0, store.listCalls, "no scan may happen for exempt plans")
}

func TestCleanupOrganizationGdprOverride(t *testing.T) {
	store := newFakeArtifactStore()
	for id := uint(1); id <= 5; id++ {
		store.add(id, 1000)
	}

	now := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	c := NewCleanupCoordinator(nil, NewPolicyResolver(DefaultRetentionWindows()), store, store, nil, false)
	c.now = func() time.Time { return now }

	run, err := c.CleanupOrganization(context.Background(), orgWithPlan(1, "enterprise"), true)
	require.NoError(t, err)
	assert.True(t, run.GdprOverride)
	assert.Equal(t, int64(5), run.ArtifactsFound)
	assert.Equal(t, int64(5), run.ArtifactsDeleted)
	assert.Equal(t, now, store.lastCutoff, "override must put any-age artifacts in scope")
}

func TestCleanupOrganizationPartialFailureIsolation(t *testing.T) {
	store := newFakeArtifactStore()
	store.add(1, 100)
	store.add(2, 100)
	store.add(3, 100)
	store.failIds[2] = true

	c := NewCleanupCoordinator(nil, NewPolicyResolver(DefaultRetentionWindows()), store, store, nil, false)

	run, err := c.CleanupOrganization(context.Background(), orgWithPlan(1, "free"), false)
	require.NoError(t, err)
	assert.Equal(t, int64(3), run.ArtifactsFound)
	assert.Equal(t, int64(2), run.ArtifactsDeleted)
	assert.Equal(t, int64(1), run.ArtifactsFailed)
	assert.Equal(t, int64(200), run.BytesFreed)
}

func TestCleanupOrganizationIsIdempotent(t *testing.T) {
	store := newFakeArtifactStore()
	for id := uint(1); id <= 5; id++ {
		store.add(id, 100)
	}

	c := NewCleanupCoordinator(nil, NewPolicyResolver(DefaultRetentionWindows()), store, store, nil, false)

	first, err := c.CleanupOrganization(context.Background(), orgWithPlan(1, "free"), false)
	require.NoError(t, err)
	assert.Equal(t, int64(5), first.ArtifactsFound)
	assert.Equal(t, int64(5), first.ArtifactsDeleted)

	second, err := c.CleanupOrganization(context.Background(), orgWithPlan(1, "free"), false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.ArtifactsFound, "the drained set must stay drained")

	third, err := c.CleanupOrganization(context.Background(), orgWithPlan(1, "free"), false)
	require.NoError(t, err)
	assert.Equal(t, second.ArtifactsFound, third.ArtifactsFound)
}

func TestCleanupOrganizationCutoffFromPlanWindow(t *testing.T) {
	store := newFakeArtifactStore()

	now := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	c := NewCleanupCoordinator(nil, NewPolicyResolver(DefaultRetentionWindows()), store, store, nil, false)
	c.now = func() time.Time { return now }

	_, err := c.CleanupOrganization(context.Background(), orgWithPlan(1, "basic"), false)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -90), store.lastCutoff)
}

func TestCleanupFleetAggregates(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "slug", "plan"}).
		AddRow(1, "acme", "basic").
		AddRow(2, "globex", "basic")
	mock.ExpectQuery(`SELECT (.+) FROM "organizations"`).WillReturnRows(rows)

	store := newFakeArtifactStore()
	for id := uint(1); id <= 5; id++ {
		store.add(id, 204_800)
	}
	refillable := &refillingStore{inner: store}

	c := NewCleanupCoordinator(db, NewPolicyResolver(DefaultRetentionWindows()), refillable, refillable, nil, false)

	fleet, err := c.CleanupFleet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), fleet.TotalOrgs)
	assert.Equal(t, int64(0), fleet.OrgsFailed)
	assert.Equal(t, int64(10), fleet.TotalArtifactsDeleted)
	assert.Equal(t, int64(2_048_000), fleet.TotalBytesFreed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// refillingStore restocks the same five artifacts for every organization, so
// each org in a fleet pass observes an identical expired set.
type refillingStore struct {
	inner *fakeArtifactStore
}

func (r *refillingStore) ListExpired(ctx context.Context, cutoff time.Time, orgId *uint) ([]models.ContentArtifact, error) {
	for id := uint(1); id <= 5; id++ {
		r.inner.add(id, 204_800)
	}
	return r.inner.ListExpired(ctx, cutoff, orgId)
}

func (r *refillingStore) DeleteArtifact(ctx context.Context, meta models.ContentArtifact, plan string) Outcome {
	return r.inner.DeleteArtifact(ctx, meta, plan)
}

func TestCleanupFleetIsolatesOrgFailures(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "slug", "plan"}).
		AddRow(1, "acme", "free").
		AddRow(2, "globex", "free")
	mock.ExpectQuery(`SELECT (.+) FROM "organizations"`).WillReturnRows(rows)

	failing := &failingLister{failOrg: 1, store: newFakeArtifactStore()}
	failing.store.add(9, 100)

	c := NewCleanupCoordinator(db, NewPolicyResolver(DefaultRetentionWindows()), failing, failing.store, nil, false)

	fleet, err := c.CleanupFleet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), fleet.TotalOrgs)
	assert.Equal(t, int64(1), fleet.OrgsFailed)
	assert.Equal(t, int64(1), fleet.TotalArtifactsDeleted, "the healthy org must still be cleaned")
}

type failingLister struct {
	failOrg uint
	store   *fakeArtifactStore
}

func (f *failingLister) ListExpired(ctx context.Context, cutoff time.Time, orgId *uint) ([]models.ContentArtifact, error) {
	if orgId != nil && *orgId == f.failOrg {
		return nil, errors.New("connection reset")
	}
	return f.store.ListExpired(ctx, cutoff, orgId)
}
