package service

import (
	"context"
	"sync"
	"testing"

	"github.com/idia-astro/ilifudb/internal/db"
	"github.com/idia-astro/ilifudb/internal/repository"
	"github.com/idia-astro/ilifudb/internal/testutil"
)

type testRepos struct {
	projects repository.ProjectRepo
	users    repository.UserRepo
	members  repository.MembershipRepo
	uow      db.UnitOfWork
}

func setupRepos(t *testing.T) testRepos {
	t.Helper()
	database := testutil.NewTestDB(t)
	conn := db.Bind(database, db.DialectSQLite)
	return testRepos{
		projects: repository.NewSQLProjectRepo(conn),
		users:    repository.NewSQLUserRepo(conn),
		members:  repository.NewSQLMembershipRepo(conn),
		uow:      testutil.NewTestUoW(database),
	}
}

// recordingObserver keeps every event it sees.
type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) last() UseCaseEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events[len(o.events)-1]
}
