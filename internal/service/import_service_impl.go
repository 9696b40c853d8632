package service

import (
	"context"
	"fmt"
	"time"

	"github.com/idia-astro/ilifudb/internal/db"
	"github.com/idia-astro/ilifudb/internal/domain"
	"github.com/idia-astro/ilifudb/internal/importer"
	"github.com/idia-astro/ilifudb/internal/repository"
)

type importService struct {
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewImportService(uow db.UnitOfWork, observers ...UseCaseObserver) ImportService {
	return &importService{
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *importService) ImportFile(ctx context.Context, filePath string) (*ImportResult, error) {
	f, err := importer.LoadTreeFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.Import(ctx, f)
}

// Import stores every user, project and membership of f, or nothing.
func (s *importService) Import(ctx context.Context, f *importer.TreeFile) (result *ImportResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"users":    len(f.Users),
		"projects": len(f.Projects),
		"members":  len(f.Members),
	}
	defer func() {
		observe(ctx, s.observer, "import-tree", startedAt, fields, err)
	}()

	if errs := importer.ValidateTreeFile(f); len(errs) > 0 {
		fields["validation_errors"] = len(errs)
		return nil, formatValidationErrors(errs)
	}

	tree, err := importer.Convert(f)
	if err != nil {
		return nil, fmt.Errorf("converting tree file: %w", err)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txUsers := repository.NewSQLUserRepo(tx)
		txProjects := repository.NewSQLProjectRepo(tx)
		txMembers := repository.NewSQLMembershipRepo(tx)

		userIDs := make(map[string]int64, len(tree.Users))
		for _, u := range tree.Users {
			if err := txUsers.Create(ctx, u); err != nil {
				return fmt.Errorf("creating user %q: %w", u.Username, err)
			}
			userIDs[u.Username] = u.ID
		}

		projectIDs := make(map[string]int64, len(tree.Projects))
		for _, rec := range tree.Projects {
			p := rec.Project
			p.PIUserID = lookupID(userIDs, rec.PI)
			p.CoPIUserID = lookupID(userIDs, rec.CoPI)
			p.AdminUserID = lookupID(userIDs, rec.Admin)
			if err := txProjects.Create(ctx, p); err != nil {
				return fmt.Errorf("creating project %q: %w", p.Name, err)
			}
			projectIDs[p.Name] = p.ID
		}

		for _, m := range tree.Members {
			member := &domain.ProjectMember{ProjectID: projectIDs[m.Project], UserID: userIDs[m.User]}
			if err := txMembers.Add(ctx, member); err != nil {
				return fmt.Errorf("adding %q to %q: %w", m.User, m.Project, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ImportResult{
		UserCount:    len(tree.Users),
		ProjectCount: len(tree.Projects),
		MemberCount:  len(tree.Members),
	}, nil
}

func lookupID(ids map[string]int64, name string) *int64 {
	if name == "" {
		return nil
	}
	id, ok := ids[name]
	if !ok {
		return nil
	}
	return &id
}

func formatValidationErrors(errs []error) error {
	return fmt.Errorf("import validation failed (%d errors):\n%s", len(errs), importer.JoinErrors(errs))
}
