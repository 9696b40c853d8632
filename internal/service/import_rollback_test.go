package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/idia-astro/ilifudb/internal/db"
	"github.com/idia-astro/ilifudb/internal/repository"
	"github.com/idia-astro/ilifudb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImport_RollbackOnMemberFailure(t *testing.T) {
	database := testutil.NewTestDB(t)
	conn := db.Bind(database, db.DialectSQLite)
	projects := repository.NewSQLProjectRepo(conn)
	users := repository.NewSQLUserRepo(conn)
	ctx := context.Background()

	// Writes in the example tree: #1-#2 users, #3-#11 projects, #12-#13 members.
	failUoW := &testutil.FailOnNthExecUoW{
		DB:     database,
		FailOn: 13,
		Err:    fmt.Errorf("injected member failure"),
	}
	svc := NewImportService(failUoW)

	_, err := svc.ImportFile(ctx, exampleTreeFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected member failure")

	all, err := projects.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, all, "no projects should exist after rollback")
	stored, err := users.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, stored, "no users should exist after rollback")
}

func TestImport_RollbackOnProjectFailure(t *testing.T) {
	database := testutil.NewTestDB(t)
	projects := repository.NewSQLProjectRepo(db.Bind(database, db.DialectSQLite))
	ctx := context.Background()

	failUoW := &testutil.FailOnNthExecUoW{
		DB:     database,
		FailOn: 6,
		Err:    fmt.Errorf("injected project failure"),
	}
	svc := NewImportService(failUoW)

	_, err := svc.ImportFile(ctx, exampleTreeFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating project")

	all, err := projects.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestImport_CommitsWhenNoFailure(t *testing.T) {
	database := testutil.NewTestDB(t)
	projects := repository.NewSQLProjectRepo(db.Bind(database, db.DialectSQLite))
	ctx := context.Background()

	failUoW := &testutil.FailOnNthExecUoW{DB: database, FailOn: 99, Err: fmt.Errorf("unused")}
	result, err := NewImportService(failUoW).ImportFile(ctx, exampleTreeFile)
	require.NoError(t, err)
	assert.Equal(t, 9, result.ProjectCount)

	all, err := projects.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 9)
}
