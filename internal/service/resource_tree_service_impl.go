package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/idia-astro/ilifudb/internal/db"
	"github.com/idia-astro/ilifudb/internal/domain"
	"github.com/idia-astro/ilifudb/internal/repository"
)

// balanceTolerance absorbs float error when summing sibling fractions.
const balanceTolerance = 1e-9

type resourceTreeService struct {
	projects repository.ProjectRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewResourceTreeService(
	projects repository.ProjectRepo,
	uow db.UnitOfWork,
	observers ...UseCaseObserver,
) ResourceTreeService {
	return &resourceTreeService{
		projects: projects,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *resourceTreeService) Get(ctx context.Context, pos domain.TreePosition) (*domain.Project, error) {
	if pos.IsRoot() {
		return domain.NewRootProject(), nil
	}
	return s.projects.GetByPosition(ctx, pos)
}

func (s *resourceTreeService) GetByName(ctx context.Context, name string) (*domain.Project, error) {
	p, err := s.projects.GetByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("project %q: %w", name, repository.ErrNotFound)
	}
	return p, err
}

func (s *resourceTreeService) EffectiveAllocation(ctx context.Context, pos domain.TreePosition) (float64, error) {
	alloc, err := s.Allocation(ctx, pos)
	if err != nil {
		return 0, err
	}
	return alloc.Effective, nil
}

func (s *resourceTreeService) Allocation(ctx context.Context, pos domain.TreePosition) (alloc *domain.Allocation, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"position": pos.Key()}
	defer func() {
		if alloc != nil {
			fields["effective"] = alloc.Effective
		}
		observe(ctx, s.observer, "effective-allocation", startedAt, fields, err)
	}()

	return allocationOf(ctx, s.projects, pos)
}

// allocationOf walks from the root to pos, multiplying parent fractions.
// Every stored ancestor must exist.
func allocationOf(ctx context.Context, projects repository.ProjectRepo, pos domain.TreePosition) (*domain.Allocation, error) {
	if pos.IsRoot() {
		return &domain.Allocation{Project: domain.NewRootProject(), Effective: 1, Chain: []*domain.Project{}}, nil
	}
	if err := pos.Validate(); err != nil {
		return nil, fmt.Errorf("project at %s: %w", pos, repository.ErrNotFound)
	}

	chain := make([]*domain.Project, 0, pos.Depth())
	effective := 1.0
	for depth := 1; depth <= pos.Depth(); depth++ {
		at := pos[:depth]
		p, err := projects.GetByPosition(ctx, at)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) && depth < pos.Depth() {
				return nil, fmt.Errorf("ancestor %s of %s: %w", at, pos, repository.ErrNotFound)
			}
			return nil, err
		}
		effective *= p.ParentFraction
		chain = append(chain, p)
	}
	return &domain.Allocation{Project: chain[len(chain)-1], Effective: effective, Chain: chain}, nil
}

func (s *resourceTreeService) Children(ctx context.Context, pos domain.TreePosition) ([]*domain.Project, error) {
	return s.projects.ListChildren(ctx, pos)
}

func (s *resourceTreeService) Tree(ctx context.Context, pos domain.TreePosition) (entries []TreeEntry, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"position": pos.Key()}
	defer func() {
		fields["node_count"] = len(entries)
		observe(ctx, s.observer, "project-tree", startedAt, fields, err)
	}()

	top, err := allocationOf(ctx, s.projects, pos)
	if err != nil {
		return nil, err
	}
	nodes, err := s.projects.ListSubtree(ctx, pos)
	if err != nil {
		return nil, err
	}

	effective := map[string]float64{pos.Key(): top.Effective}
	entries = make([]TreeEntry, 0, len(nodes)+1)
	if pos.IsRoot() {
		entries = append(entries, TreeEntry{Project: top.Project, Effective: 1})
	}
	for _, n := range nodes {
		entry := TreeEntry{Project: n, Level: n.Depth() - pos.Depth()}
		if n.Position.Equal(pos) {
			entry.Effective = top.Effective
		} else if parent, ok := effective[n.Position.Parent().Key()]; ok {
			entry.Effective = parent * n.ParentFraction
		} else {
			entry.Orphan = true
		}
		if !entry.Orphan {
			effective[n.Position.Key()] = entry.Effective
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *resourceTreeService) SiblingSummary(ctx context.Context, parent domain.TreePosition) (*SiblingSummary, error) {
	p, err := s.Get(ctx, parent)
	if err != nil {
		return nil, err
	}
	children, err := s.projects.ListChildren(ctx, parent)
	if err != nil {
		return nil, err
	}
	summary := &SiblingSummary{Parent: p, Children: children}
	for _, c := range children {
		summary.Sum += c.ParentFraction
	}
	summary.Balanced = len(children) > 0 && math.Abs(summary.Sum-1) < balanceTolerance
	return summary, nil
}

func (s *resourceTreeService) List(ctx context.Context, includeDisabled bool) ([]*domain.Project, error) {
	return s.projects.List(ctx, includeDisabled)
}

func (s *resourceTreeService) AddProject(ctx context.Context, p *domain.Project) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"project": p.Name, "position": p.Position.Key()}
	defer func() {
		observe(ctx, s.observer, "add-project", startedAt, fields, err)
	}()

	if err := p.Validate(); err != nil {
		return err
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txProjects := repository.NewSQLProjectRepo(tx)
		if err := requireParent(ctx, txProjects, p.Position); err != nil {
			return err
		}
		return txProjects.Create(ctx, p)
	})
}

func (s *resourceTreeService) AddChild(ctx context.Context, parent domain.TreePosition, p *domain.Project) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"project": p.Name, "parent": parent.Key()}
	defer func() {
		fields["position"] = p.Position.Key()
		observe(ctx, s.observer, "add-project", startedAt, fields, err)
	}()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txProjects := repository.NewSQLProjectRepo(tx)
		if !parent.IsRoot() {
			if _, err := txProjects.GetByPosition(ctx, parent); err != nil {
				return fmt.Errorf("parent %s: %w", parent, err)
			}
		}
		next, err := txProjects.NextChildIndex(ctx, parent)
		if err != nil {
			return err
		}
		p.Position = parent.Child(next)
		if err := p.Validate(); err != nil {
			return err
		}
		return txProjects.Create(ctx, p)
	})
}

// requireParent checks that the parent of pos is stored. Depth-1 nodes hang
// off the implicit root.
func requireParent(ctx context.Context, projects repository.ProjectRepo, pos domain.TreePosition) error {
	if pos.Depth() <= 1 {
		return nil
	}
	if _, err := projects.GetByPosition(ctx, pos.Parent()); err != nil {
		return fmt.Errorf("parent %s of %s: %w", pos.Parent(), pos, err)
	}
	return nil
}

// UpdateProject stores changed fields. A project may only move to a new
// position while it has no children.
func (s *resourceTreeService) UpdateProject(ctx context.Context, p *domain.Project) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"project": p.Name, "id": p.ID}
	defer func() {
		observe(ctx, s.observer, "update-project", startedAt, fields, err)
	}()

	if err := p.Validate(); err != nil {
		return err
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txProjects := repository.NewSQLProjectRepo(tx)
		current, err := txProjects.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if !current.Position.Equal(p.Position) {
			fields["moved_from"] = current.Position.Key()
			children, err := txProjects.ListChildren(ctx, current.Position)
			if err != nil {
				return err
			}
			if len(children) > 0 {
				return fmt.Errorf("moving %q: %w", current.Name, ErrHasChildren)
			}
			if err := requireParent(ctx, txProjects, p.Position); err != nil {
				return err
			}
		}
		return txProjects.Update(ctx, p)
	})
}

func (s *resourceTreeService) SetEnabled(ctx context.Context, pos domain.TreePosition, enabled bool) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"position": pos.Key(), "enabled": enabled}
	defer func() {
		observe(ctx, s.observer, "set-project-enabled", startedAt, fields, err)
	}()

	p, err := s.projects.GetByPosition(ctx, pos)
	if err != nil {
		return err
	}
	return s.projects.SetEnabled(ctx, p.ID, enabled)
}

// RemoveProject deletes the project at pos. With force the whole subtree is
// removed, deepest nodes first, in one transaction. Returns the number of
// projects removed.
func (s *resourceTreeService) RemoveProject(ctx context.Context, pos domain.TreePosition, force bool) (removed int, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"position": pos.Key(), "force": force}
	defer func() {
		fields["removed"] = removed
		observe(ctx, s.observer, "remove-project", startedAt, fields, err)
	}()

	if pos.IsRoot() {
		return 0, fmt.Errorf("%w: the root cannot be removed", domain.ErrInvalidPosition)
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txProjects := repository.NewSQLProjectRepo(tx)
		subtree, err := txProjects.ListSubtree(ctx, pos)
		if err != nil {
			return err
		}
		if len(subtree) == 0 || !subtree[0].Position.Equal(pos) {
			return fmt.Errorf("project at %s: %w", pos, repository.ErrNotFound)
		}
		if len(subtree) > 1 && !force {
			return fmt.Errorf("removing %q (%d descendants): %w", subtree[0].Name, len(subtree)-1, ErrHasChildren)
		}
		for i := len(subtree) - 1; i >= 0; i-- {
			if err := txProjects.Delete(ctx, subtree[i].ID); err != nil {
				return fmt.Errorf("removing %q: %w", subtree[i].Name, err)
			}
		}
		removed = len(subtree)
		return nil
	})
	if err != nil {
		removed = 0
	}
	return removed, err
}
