package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/idia-astro/ilifudb/internal/db"
	"github.com/idia-astro/ilifudb/internal/domain"
)

// projectColumns is the canonical SELECT column list for project.
const projectColumns = `id, enabled, status, name, pi_user_id, co_pi_user_id, admin_user_id,
		level1, level2, level3, level4, level5, parent_resource_fraction,
		allocated_resources, resource_limits, created, last_updated`

// SQLProjectRepo implements ProjectRepo over SQLite or PostgreSQL.
type SQLProjectRepo struct {
	db db.DBTX
}

// NewSQLProjectRepo creates a new SQLProjectRepo. conn must already be bound
// to its dialect (see db.Bind).
func NewSQLProjectRepo(conn db.DBTX) *SQLProjectRepo {
	return &SQLProjectRepo{db: conn}
}

func (r *SQLProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	if p.Status == "" {
		p.Status = domain.ProjectPlanning
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = nowUTC()
	}
	levels := levelArgs(p.Position)

	query := `INSERT INTO project (enabled, status, name, pi_user_id, co_pi_user_id, admin_user_id,
		level1, level2, level3, level4, level5, posn, depth, parent_resource_fraction,
		allocated_resources, resource_limits, created, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		p.Enabled,
		string(p.Status),
		p.Name,
		nullableInt64ToValue(p.PIUserID),
		nullableInt64ToValue(p.CoPIUserID),
		nullableInt64ToValue(p.AdminUserID),
		levels[0], levels[1], levels[2], levels[3], levels[4],
		p.Position.Key(),
		p.Position.Depth(),
		p.ParentFraction,
		emptyToNull(p.AllocatedResources),
		emptyToNull(p.ResourceLimits),
		formatTimestamp(p.CreatedAt),
		nullableTimeToString(p.LastUpdated),
	).Scan(&p.ID)
	if err != nil {
		return mapWriteError(fmt.Sprintf("inserting project %q", p.Name), err)
	}
	return nil
}

func (r *SQLProjectRepo) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM project WHERE id = ?`
	return r.scanProject(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLProjectRepo) GetByName(ctx context.Context, name string) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM project WHERE name = ?`
	return r.scanProject(r.db.QueryRowContext(ctx, query, name))
}

// GetByPosition looks a project up by its canonical position key. Positions
// that cannot be stored (root, or deeper than five levels) never match.
func (r *SQLProjectRepo) GetByPosition(ctx context.Context, pos domain.TreePosition) (*domain.Project, error) {
	if pos.IsRoot() || pos.Validate() != nil {
		return nil, fmt.Errorf("project at %s: %w", pos, ErrNotFound)
	}
	query := `SELECT ` + projectColumns + ` FROM project WHERE posn = ?`
	p, err := r.scanProject(r.db.QueryRowContext(ctx, query, pos.Key()))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("project at %s: %w", pos, ErrNotFound)
	}
	return p, err
}

// ListChildren returns the direct children of parent ordered by their final
// level. The children of the root are the depth-1 projects.
func (r *SQLProjectRepo) ListChildren(ctx context.Context, parent domain.TreePosition) ([]*domain.Project, error) {
	depth := parent.Depth() + 1
	if depth > domain.MaxTreeDepth {
		return []*domain.Project{}, nil
	}
	clause, args := prefixClause(parent)
	query := fmt.Sprintf(`SELECT %s FROM project WHERE depth = ? AND %s ORDER BY level%d`,
		projectColumns, clause, depth)
	return r.queryProjects(ctx, "listing child projects", query, append([]any{depth}, args...)...)
}

// ListSubtree returns pos and all of its descendants in depth-first order.
func (r *SQLProjectRepo) ListSubtree(ctx context.Context, pos domain.TreePosition) ([]*domain.Project, error) {
	if pos.Validate() != nil {
		return []*domain.Project{}, nil
	}
	clause, args := prefixClause(pos)
	query := `SELECT ` + projectColumns + ` FROM project WHERE ` + clause + ` ` + treeOrder
	return r.queryProjects(ctx, "listing project subtree", query, args...)
}

// ListByUser returns projects where the user is PI, co-PI or admin.
func (r *SQLProjectRepo) ListByUser(ctx context.Context, userID int64) ([]*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM project
		WHERE pi_user_id = ? OR co_pi_user_id = ? OR admin_user_id = ? ` + treeOrder
	return r.queryProjects(ctx, "listing projects by user", query, userID, userID, userID)
}

func (r *SQLProjectRepo) List(ctx context.Context, includeDisabled bool) ([]*domain.Project, error) {
	if includeDisabled {
		query := `SELECT ` + projectColumns + ` FROM project ` + treeOrder
		return r.queryProjects(ctx, "listing projects", query)
	}
	query := `SELECT ` + projectColumns + ` FROM project WHERE enabled = ? AND status <> 'disabled' ` + treeOrder
	return r.queryProjects(ctx, "listing projects", query, true)
}

// NextChildIndex returns one past the largest final level among parent's children.
func (r *SQLProjectRepo) NextChildIndex(ctx context.Context, parent domain.TreePosition) (int, error) {
	depth := parent.Depth() + 1
	if depth > domain.MaxTreeDepth {
		return 0, fmt.Errorf("%w: %s is at the maximum depth", domain.ErrInvalidPosition, parent)
	}
	clause, args := prefixClause(parent)
	query := fmt.Sprintf(`SELECT COALESCE(MAX(level%d), 0) + 1 FROM project WHERE depth = ? AND %s`, depth, clause)
	var next int
	if err := r.db.QueryRowContext(ctx, query, append([]any{depth}, args...)...).Scan(&next); err != nil {
		return 0, fmt.Errorf("computing next child index under %s: %w", parent, err)
	}
	return next, nil
}

func (r *SQLProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	now := nowUTC()
	levels := levelArgs(p.Position)
	query := `UPDATE project SET enabled = ?, status = ?, name = ?, pi_user_id = ?, co_pi_user_id = ?,
		admin_user_id = ?, level1 = ?, level2 = ?, level3 = ?, level4 = ?, level5 = ?, posn = ?, depth = ?,
		parent_resource_fraction = ?, allocated_resources = ?, resource_limits = ?, last_updated = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		p.Enabled,
		string(p.Status),
		p.Name,
		nullableInt64ToValue(p.PIUserID),
		nullableInt64ToValue(p.CoPIUserID),
		nullableInt64ToValue(p.AdminUserID),
		levels[0], levels[1], levels[2], levels[3], levels[4],
		p.Position.Key(),
		p.Position.Depth(),
		p.ParentFraction,
		emptyToNull(p.AllocatedResources),
		emptyToNull(p.ResourceLimits),
		formatTimestamp(now),
		p.ID,
	)
	if err != nil {
		return mapWriteError(fmt.Sprintf("updating project %q", p.Name), err)
	}
	if err := expectOneRow(res, "project", p.ID); err != nil {
		return err
	}
	p.LastUpdated = &now
	return nil
}

func (r *SQLProjectRepo) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	query := `UPDATE project SET enabled = ?, last_updated = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, enabled, formatTimestamp(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("setting project enabled: %w", err)
	}
	return expectOneRow(res, "project", id)
}

func (r *SQLProjectRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM project WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	return expectOneRow(res, "project", id)
}

// queryProjects drains the result set before returning so the single pooled
// SQLite connection is free for the caller's next statement.
func (r *SQLProjectRepo) queryProjects(ctx context.Context, what, query string, args ...any) ([]*domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	projects := []*domain.Project{}
	for rows.Next() {
		p, err := scanProjectRow(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

// scanProject scans a single project from a *sql.Row.
func (r *SQLProjectRepo) scanProject(row *sql.Row) (*domain.Project, error) {
	p, err := scanProjectRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project: %w", ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func scanProjectRow(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	var statusStr, createdStr string
	var pi, coPI, admin sql.NullInt64
	var l1, l2, l3, l4, l5 sql.NullInt64
	var allocated, limits, lastUpdated sql.NullString

	err := row.Scan(
		&p.ID, &p.Enabled, &statusStr, &p.Name, &pi, &coPI, &admin,
		&l1, &l2, &l3, &l4, &l5, &p.ParentFraction,
		&allocated, &limits, &createdStr, &lastUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning project row: %w", err)
	}

	p.Status = domain.ProjectStatus(statusStr)
	p.PIUserID = int64Ptr(pi)
	p.CoPIUserID = int64Ptr(coPI)
	p.AdminUserID = int64Ptr(admin)
	p.AllocatedResources = allocated.String
	p.ResourceLimits = limits.String

	var levels [domain.MaxTreeDepth]*int
	for i, l := range []sql.NullInt64{l1, l2, l3, l4, l5} {
		if l.Valid {
			v := int(l.Int64)
			levels[i] = &v
		}
	}
	p.Position, err = domain.FromLevels(levels)
	if err != nil {
		return nil, fmt.Errorf("project %d: %w", p.ID, err)
	}

	p.CreatedAt, err = parseTimestamp(createdStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created: %w", err)
	}
	p.LastUpdated = parseNullableTime(lastUpdated)

	return &p, nil
}

// expectOneRow turns a zero-row UPDATE or DELETE into ErrNotFound.
func expectOneRow(res sql.Result, table string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
	}
	return nil
}
