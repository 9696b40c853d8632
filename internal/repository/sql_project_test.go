package repository

import (
	"context"
	"testing"

	"github.com/idia-astro/ilifudb/internal/db"
	"github.com/idia-astro/ilifudb/internal/domain"
	"github.com/idia-astro/ilifudb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProjectRepo(t *testing.T) *SQLProjectRepo {
	t.Helper()
	return NewSQLProjectRepo(db.Bind(testutil.NewTestDB(t), db.DialectSQLite))
}

func names(projects []*domain.Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.Name
	}
	return out
}

func TestProjectRepo_CreateAndGetByID(t *testing.T) {
	repo := newProjectRepo(t)
	ctx := context.Background()

	proj := testutil.NewTestProject("LADUMA", domain.TreePosition{1, 1},
		testutil.WithFraction(0.2),
		testutil.WithResources("cpu: 400", "gpu: 0"))
	require.NoError(t, repo.Create(ctx, proj))
	require.NotZero(t, proj.ID)

	fetched, err := repo.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, "LADUMA", fetched.Name)
	assert.Equal(t, domain.TreePosition{1, 1}, fetched.Position)
	assert.InDelta(t, 0.2, fetched.ParentFraction, 1e-12)
	assert.Equal(t, domain.ProjectLive, fetched.Status)
	assert.True(t, fetched.Enabled)
	assert.Equal(t, "cpu: 400", fetched.AllocatedResources)
	assert.Equal(t, "gpu: 0", fetched.ResourceLimits)
	assert.Equal(t, proj.CreatedAt, fetched.CreatedAt)
	assert.Nil(t, fetched.LastUpdated)
}

func TestProjectRepo_CreateDefaultsStatus(t *testing.T) {
	repo := newProjectRepo(t)
	ctx := context.Background()

	proj := testutil.NewTestProject("CBIO", domain.TreePosition{2}, testutil.WithStatus(""))
	require.NoError(t, repo.Create(ctx, proj))
	assert.Equal(t, domain.ProjectPlanning, proj.Status)

	fetched, err := repo.GetByName(ctx, "CBIO")
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectPlanning, fetched.Status)
}

func TestProjectRepo_GetByID_NotFound(t *testing.T) {
	repo := newProjectRepo(t)

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectRepo_Create_DuplicateName(t *testing.T) {
	repo := newProjectRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestProject("IDIA", domain.TreePosition{1})))
	err := repo.Create(ctx, testutil.NewTestProject("IDIA", domain.TreePosition{2}))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestProjectRepo_Create_DuplicatePosition(t *testing.T) {
	repo := newProjectRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestProject("IDIA", domain.TreePosition{1})))
	err := repo.Create(ctx, testutil.NewTestProject("OTHER", domain.TreePosition{1}))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestProjectRepo_Create_UnknownPI(t *testing.T) {
	repo := newProjectRepo(t)

	err := repo.Create(context.Background(),
		testutil.NewTestProject("IDIA", domain.TreePosition{1}, testutil.WithPI(999)))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectRepo_GetByPosition(t *testing.T) {
	repo := newProjectRepo(t)
	ctx := context.Background()
	seeded := testutil.SeedIlifuTree(t, repo)

	p, err := repo.GetByPosition(ctx, domain.TreePosition{3, 1})
	require.NoError(t, err)
	assert.Equal(t, seeded["DIRISA-ASTRO"].ID, p.ID)

	_, err = repo.GetByPosition(ctx, domain.TreePosition{3, 3})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByPosition(ctx, domain.TreePosition{1, 1, 1, 1, 1, 1})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByPosition(ctx, domain.RootPosition)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectRepo_ListChildren_OrderedByFinalLevel(t *testing.T) {
	repo := newProjectRepo(t)
	ctx := context.Background()

	// Inserted out of order on purpose.
	for _, p := range []*domain.Project{
		testutil.NewTestProject("IDIA", domain.TreePosition{1}),
		testutil.NewTestProject("MIGHTEE", domain.TreePosition{1, 3}),
		testutil.NewTestProject("LADUMA", domain.TreePosition{1, 1}),
		testutil.NewTestProject("MHONGOOSE", domain.TreePosition{1, 2}),
		testutil.NewTestProject("DEEP", domain.TreePosition{1, 1, 1}),
	} {
		require.NoError(t, repo.Create(ctx, p))
	}

	children, err := repo.ListChildren(ctx, domain.TreePosition{1})
	require.NoError(t, err)
	assert.Equal(t, []string{"LADUMA", "MHONGOOSE", "MIGHTEE"}, names(children))

	top, err := repo.ListChildren(ctx, domain.RootPosition)
	require.NoError(t, err)
	assert.Equal(t, []string{"IDIA"}, names(top))

	leaf, err := repo.ListChildren(ctx, domain.TreePosition{1, 2})
	require.NoError(t, err)
	assert.NotNil(t, leaf)
	assert.Empty(t, leaf)

	tooDeep, err := repo.ListChildren(ctx, domain.TreePosition{1, 1, 1, 1, 1})
	require.NoError(t, err)
	assert.Empty(t, tooDeep)
}

func TestProjectRepo_ListSubtree_DepthFirst(t *testing.T) {
	repo := newProjectRepo(t)
	ctx := context.Background()
	testutil.SeedIlifuTree(t, repo)

	all, err := repo.ListSubtree(ctx, domain.RootPosition)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"IDIA", "LADUMA", "MHONGOOSE", "MIGHTEE", "CBIO", "DIRISA", "DIRISA-ASTRO", "DIRISA-BIO",
	}, names(all))

	dirisa, err := repo.ListSubtree(ctx, domain.TreePosition{3})
	require.NoError(t, err)
	assert.Equal(t, []string{"DIRISA", "DIRISA-ASTRO", "DIRISA-BIO"}, names(dirisa))
}

func TestProjectRepo_List_ExcludesDisabled(t *testing.T) {
	repo := newProjectRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestProject("IDIA", domain.TreePosition{1})))
	require.NoError(t, repo.Create(ctx, testutil.NewTestProject("CBIO", domain.TreePosition{2}, testutil.WithDisabled())))
	require.NoError(t, repo.Create(ctx, testutil.NewTestProject("DIRISA", domain.TreePosition{3},
		testutil.WithStatus(domain.ProjectDisabled))))

	active, err := repo.List(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"IDIA"}, names(active))

	all, err := repo.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestProjectRepo_NextChildIndex(t *testing.T) {
	repo := newProjectRepo(t)
	ctx := context.Background()
	testutil.SeedIlifuTree(t, repo)

	next, err := repo.NextChildIndex(ctx, domain.RootPosition)
	require.NoError(t, err)
	assert.Equal(t, 4, next)

	next, err = repo.NextChildIndex(ctx, domain.TreePosition{1})
	require.NoError(t, err)
	assert.Equal(t, 4, next)

	next, err = repo.NextChildIndex(ctx, domain.TreePosition{2})
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	_, err = repo.NextChildIndex(ctx, domain.TreePosition{1, 1, 1, 1, 1})
	assert.ErrorIs(t, err, domain.ErrInvalidPosition)
}

func TestProjectRepo_UpdateAndSetEnabled(t *testing.T) {
	repo := newProjectRepo(t)
	ctx := context.Background()

	proj := testutil.NewTestProject("IDIA", domain.TreePosition{1})
	require.NoError(t, repo.Create(ctx, proj))

	proj.ParentFraction = 0.3
	proj.Status = domain.ProjectPlanning
	require.NoError(t, repo.Update(ctx, proj))
	require.NotNil(t, proj.LastUpdated)

	require.NoError(t, repo.SetEnabled(ctx, proj.ID, false))

	fetched, err := repo.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, fetched.ParentFraction, 1e-12)
	assert.Equal(t, domain.ProjectPlanning, fetched.Status)
	assert.False(t, fetched.Enabled)
	assert.NotNil(t, fetched.LastUpdated)

	missing := testutil.NewTestProject("GHOST", domain.TreePosition{9})
	missing.ID = 404
	assert.ErrorIs(t, repo.Update(ctx, missing), ErrNotFound)
	assert.ErrorIs(t, repo.SetEnabled(ctx, 404, true), ErrNotFound)
}

func TestProjectRepo_Delete(t *testing.T) {
	repo := newProjectRepo(t)
	ctx := context.Background()

	proj := testutil.NewTestProject("CBIO", domain.TreePosition{2})
	require.NoError(t, repo.Create(ctx, proj))
	require.NoError(t, repo.Delete(ctx, proj.ID))

	_, err := repo.GetByID(ctx, proj.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, proj.ID), ErrNotFound)
}

func TestProjectRepo_FractionCheckConstraint(t *testing.T) {
	repo := newProjectRepo(t)

	err := repo.Create(context.Background(),
		testutil.NewTestProject("BAD", domain.TreePosition{1}, testutil.WithFraction(1.5)))
	assert.Error(t, err)
}
