package service

import (
	"context"
	"testing"

	"github.com/idia-astro/ilifudb/internal/domain"
	"github.com/idia-astro/ilifudb/internal/repository"
	"github.com/idia-astro/ilifudb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededTreeService(t *testing.T) (ResourceTreeService, testRepos, map[string]*domain.Project) {
	t.Helper()
	repos := setupRepos(t)
	seeded := testutil.SeedIlifuTree(t, repos.projects)
	return NewResourceTreeService(repos.projects, repos.uow), repos, seeded
}

func TestEffectiveAllocation_DocumentedExamples(t *testing.T) {
	svc, _, _ := seededTreeService(t)
	ctx := context.Background()

	laduma, err := svc.EffectiveAllocation(ctx, domain.TreePosition{1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.06, laduma, 1e-12)

	astro, err := svc.EffectiveAllocation(ctx, domain.TreePosition{3, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.15, astro, 1e-12)
}

func TestEffectiveAllocation_Root(t *testing.T) {
	svc, _, _ := seededTreeService(t)

	root, err := svc.EffectiveAllocation(context.Background(), domain.RootPosition)
	require.NoError(t, err)
	assert.Equal(t, 1.0, root)
}

func TestEffectiveAllocation_ChildIsFractionOfParent(t *testing.T) {
	svc, repos, _ := seededTreeService(t)
	ctx := context.Background()

	all, err := repos.projects.List(ctx, true)
	require.NoError(t, err)
	for _, p := range all {
		child, err := svc.EffectiveAllocation(ctx, p.Position)
		require.NoError(t, err)
		parent, err := svc.EffectiveAllocation(ctx, p.Position.Parent())
		require.NoError(t, err)
		assert.InDelta(t, p.ParentFraction*parent, child, 1e-12, p.Name)
	}
}

func TestEffectiveAllocation_SixthLevelIsNotFound(t *testing.T) {
	svc, _, _ := seededTreeService(t)

	_, err := svc.EffectiveAllocation(context.Background(), domain.TreePosition{1, 1, 1, 1, 1, 1})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEffectiveAllocation_MissingAncestor(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	// Stored directly so the service's parent check is bypassed.
	require.NoError(t, repos.projects.Create(ctx, testutil.NewTestProject("ORPHAN", domain.TreePosition{4, 1})))
	svc := NewResourceTreeService(repos.projects, repos.uow)

	_, err := svc.EffectiveAllocation(ctx, domain.TreePosition{4, 1})
	require.ErrorIs(t, err, repository.ErrNotFound)
	assert.Contains(t, err.Error(), "ancestor")
}

func TestAllocation_Chain(t *testing.T) {
	svc, _, _ := seededTreeService(t)

	alloc, err := svc.Allocation(context.Background(), domain.TreePosition{3, 2})
	require.NoError(t, err)
	require.Len(t, alloc.Chain, 2)
	assert.Equal(t, "DIRISA", alloc.Chain[0].Name)
	assert.Equal(t, "DIRISA-BIO", alloc.Chain[1].Name)
	assert.Equal(t, "DIRISA-BIO", alloc.Project.Name)
	assert.InDelta(t, 15.0, alloc.Percent(), 1e-9)
}

func TestGet(t *testing.T) {
	svc, _, seeded := seededTreeService(t)
	ctx := context.Background()

	p, err := svc.Get(ctx, domain.TreePosition{1, 3})
	require.NoError(t, err)
	assert.Equal(t, seeded["MIGHTEE"].ID, p.ID)

	root, err := svc.Get(ctx, domain.RootPosition)
	require.NoError(t, err)
	assert.Equal(t, domain.RootProjectName, root.Name)
	assert.Equal(t, 1.0, root.ParentFraction)

	_, err = svc.Get(ctx, domain.TreePosition{2, 1})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.Get(ctx, domain.TreePosition{1, 1, 1, 1, 1, 1})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.GetByName(ctx, "NOPE")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestChildren(t *testing.T) {
	svc, _, _ := seededTreeService(t)
	ctx := context.Background()

	kids, err := svc.Children(ctx, domain.TreePosition{1})
	require.NoError(t, err)
	require.Len(t, kids, 3)
	for i, want := range []string{"LADUMA", "MHONGOOSE", "MIGHTEE"} {
		assert.Equal(t, want, kids[i].Name)
		assert.Equal(t, i+1, kids[i].Position.Last())
	}

	top, err := svc.Children(ctx, domain.RootPosition)
	require.NoError(t, err)
	assert.Len(t, top, 3)

	none, err := svc.Children(ctx, domain.TreePosition{2})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestTree_EffectivePerNode(t *testing.T) {
	svc, _, _ := seededTreeService(t)

	entries, err := svc.Tree(context.Background(), domain.RootPosition)
	require.NoError(t, err)
	require.Len(t, entries, 9)

	assert.Equal(t, domain.RootProjectName, entries[0].Project.Name)
	assert.Equal(t, 0, entries[0].Level)

	byName := make(map[string]TreeEntry, len(entries))
	for _, e := range entries {
		byName[e.Project.Name] = e
	}
	assert.InDelta(t, 0.30, byName["IDIA"].Effective, 1e-12)
	assert.InDelta(t, 0.06, byName["LADUMA"].Effective, 1e-12)
	assert.InDelta(t, 0.15, byName["MHONGOOSE"].Effective, 1e-12)
	assert.InDelta(t, 0.15, byName["DIRISA-ASTRO"].Effective, 1e-12)
	assert.Equal(t, 2, byName["LADUMA"].Level)
}

func TestTree_Subtree(t *testing.T) {
	svc, _, _ := seededTreeService(t)

	entries, err := svc.Tree(context.Background(), domain.TreePosition{3})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "DIRISA", entries[0].Project.Name)
	assert.Equal(t, 0, entries[0].Level)
	assert.InDelta(t, 0.30, entries[0].Effective, 1e-12)
	assert.Equal(t, 1, entries[1].Level)
	assert.InDelta(t, 0.15, entries[2].Effective, 1e-12)

	_, err = svc.Tree(context.Background(), domain.TreePosition{7})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSiblingSummary(t *testing.T) {
	svc, _, _ := seededTreeService(t)
	ctx := context.Background()

	top, err := svc.SiblingSummary(ctx, domain.RootPosition)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, top.Sum, 1e-12)
	assert.True(t, top.Balanced)

	// Sums other than 1 are reported, not rejected.
	idia, err := svc.SiblingSummary(ctx, domain.TreePosition{1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, idia.Sum, 1e-12)
	assert.Equal(t, "IDIA", idia.Parent.Name)

	cbio, err := svc.SiblingSummary(ctx, domain.TreePosition{2})
	require.NoError(t, err)
	assert.Empty(t, cbio.Children)
	assert.False(t, cbio.Balanced)
}

func TestSiblingSummary_Unbalanced(t *testing.T) {
	svc, repos, _ := seededTreeService(t)
	ctx := context.Background()
	require.NoError(t, repos.projects.Create(ctx,
		testutil.NewTestProject("EXTRA", domain.TreePosition{4}, testutil.WithFraction(0.1))))

	top, err := svc.SiblingSummary(ctx, domain.RootPosition)
	require.NoError(t, err)
	assert.InDelta(t, 1.1, top.Sum, 1e-12)
	assert.False(t, top.Balanced)
}

func TestAddProject(t *testing.T) {
	svc, _, _ := seededTreeService(t)
	ctx := context.Background()

	p := testutil.NewTestProject("MEERTIME", domain.TreePosition{1, 4}, testutil.WithFraction(0.1))
	require.NoError(t, svc.AddProject(ctx, p))
	assert.NotZero(t, p.ID)

	eff, err := svc.EffectiveAllocation(ctx, domain.TreePosition{1, 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.03, eff, 1e-12)
}

func TestAddProject_Rejects(t *testing.T) {
	svc, _, _ := seededTreeService(t)
	ctx := context.Background()

	err := svc.AddProject(ctx, testutil.NewTestProject("NOPARENT", domain.TreePosition{2, 1, 1}))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = svc.AddProject(ctx, testutil.NewTestProject("DEEP", domain.TreePosition{1, 1, 1, 1, 1, 1}))
	assert.ErrorIs(t, err, domain.ErrInvalidPosition)

	err = svc.AddProject(ctx, testutil.NewTestProject("BAD", domain.TreePosition{2, 1}, testutil.WithFraction(0)))
	assert.Error(t, err)

	err = svc.AddProject(ctx, testutil.NewTestProject("LADUMA", domain.TreePosition{2, 1}))
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)

	err = svc.AddProject(ctx, testutil.NewTestProject("NEW", domain.TreePosition{1, 1}))
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestAddChild_AssignsNextIndex(t *testing.T) {
	svc, _, _ := seededTreeService(t)
	ctx := context.Background()

	p := testutil.NewTestProject("MEERKAT-TEST", nil, testutil.WithFraction(0.05))
	require.NoError(t, svc.AddChild(ctx, domain.TreePosition{1}, p))
	assert.Equal(t, domain.TreePosition{1, 4}, p.Position)

	q := testutil.NewTestProject("FIRST-CHILD", nil)
	require.NoError(t, svc.AddChild(ctx, domain.TreePosition{2}, q))
	assert.Equal(t, domain.TreePosition{2, 1}, q.Position)

	top := testutil.NewTestProject("NEW-TOP", nil)
	require.NoError(t, svc.AddChild(ctx, domain.RootPosition, top))
	assert.Equal(t, domain.TreePosition{4}, top.Position)

	err := svc.AddChild(ctx, domain.TreePosition{9}, testutil.NewTestProject("ORPHAN", nil))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAddChild_MaxDepth(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	svc := NewResourceTreeService(repos.projects, repos.uow)

	parent := domain.RootPosition
	for i := 1; i <= domain.MaxTreeDepth; i++ {
		p := testutil.NewTestProject("L"+string(rune('0'+i)), nil)
		require.NoError(t, svc.AddChild(ctx, parent, p))
		parent = p.Position
	}
	assert.Equal(t, domain.TreePosition{1, 1, 1, 1, 1}, parent)

	err := svc.AddChild(ctx, parent, testutil.NewTestProject("L6", nil))
	assert.ErrorIs(t, err, domain.ErrInvalidPosition)
}

func TestUpdateProject(t *testing.T) {
	svc, _, seeded := seededTreeService(t)
	ctx := context.Background()

	cbio := seeded["CBIO"]
	cbio.ParentFraction = 0.25
	require.NoError(t, svc.UpdateProject(ctx, cbio))

	eff, err := svc.EffectiveAllocation(ctx, domain.TreePosition{2})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, eff, 1e-12)

	// Leaf nodes may move under an existing parent.
	cbio.Position = domain.TreePosition{1, 4}
	require.NoError(t, svc.UpdateProject(ctx, cbio))
	eff, err = svc.EffectiveAllocation(ctx, domain.TreePosition{1, 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.075, eff, 1e-12)
}

func TestUpdateProject_CannotMoveParent(t *testing.T) {
	svc, _, seeded := seededTreeService(t)

	idia := seeded["IDIA"]
	idia.Position = domain.TreePosition{5}
	err := svc.UpdateProject(context.Background(), idia)
	assert.ErrorIs(t, err, ErrHasChildren)
}

func TestSetEnabled(t *testing.T) {
	svc, repos, seeded := seededTreeService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetEnabled(ctx, domain.TreePosition{2}, false))
	p, err := repos.projects.GetByID(ctx, seeded["CBIO"].ID)
	require.NoError(t, err)
	assert.False(t, p.Enabled)

	active, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 7)

	assert.ErrorIs(t, svc.SetEnabled(ctx, domain.TreePosition{8}, true), repository.ErrNotFound)
}

func TestRemoveProject(t *testing.T) {
	svc, repos, _ := seededTreeService(t)
	ctx := context.Background()

	_, err := svc.RemoveProject(ctx, domain.TreePosition{3}, false)
	require.ErrorIs(t, err, ErrHasChildren)

	n, err := svc.RemoveProject(ctx, domain.TreePosition{2}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.RemoveProject(ctx, domain.TreePosition{3}, true)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := repos.projects.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = svc.RemoveProject(ctx, domain.TreePosition{3}, true)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.RemoveProject(ctx, domain.RootPosition, true)
	assert.ErrorIs(t, err, domain.ErrInvalidPosition)
}

func TestRemoveProject_RollsBackOnFailure(t *testing.T) {
	database := testutil.NewTestDB(t)
	projects := repository.NewSQLProjectRepo(database)
	testutil.SeedIlifuTree(t, projects)
	ctx := context.Background()

	failing := &testutil.FailOnNthExecUoW{DB: database, FailOn: 2, Err: assert.AnError}
	svc := NewResourceTreeService(projects, failing)

	_, err := svc.RemoveProject(ctx, domain.TreePosition{3}, true)
	require.ErrorIs(t, err, assert.AnError)

	subtree, err := projects.ListSubtree(ctx, domain.TreePosition{3})
	require.NoError(t, err)
	assert.Len(t, subtree, 3)
}

func TestResourceTreeService_ReportsUseCases(t *testing.T) {
	repos := setupRepos(t)
	obs := &recordingObserver{}
	svc := NewResourceTreeService(repos.projects, repos.uow, obs)
	ctx := WithRunID(context.Background(), "run-1")

	require.NoError(t, svc.AddProject(ctx, testutil.NewTestProject("IDIA", domain.TreePosition{1})))
	ev := obs.last()
	assert.Equal(t, "add-project", ev.Name)
	assert.True(t, ev.Success)
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, "IDIA", ev.Fields["project"])

	_, err := svc.EffectiveAllocation(ctx, domain.TreePosition{9})
	require.Error(t, err)
	ev = obs.last()
	assert.Equal(t, "effective-allocation", ev.Name)
	assert.False(t, ev.Success)
}
