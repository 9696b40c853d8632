package repository

import (
	"context"
	"fmt"

	"github.com/idia-astro/ilifudb/internal/db"
	"github.com/idia-astro/ilifudb/internal/domain"
)

// SQLMembershipRepo implements MembershipRepo on the project_user link table.
type SQLMembershipRepo struct {
	db db.DBTX
}

// NewSQLMembershipRepo creates a new SQLMembershipRepo.
func NewSQLMembershipRepo(conn db.DBTX) *SQLMembershipRepo {
	return &SQLMembershipRepo{db: conn}
}

func (r *SQLMembershipRepo) Add(ctx context.Context, m *domain.ProjectMember) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = nowUTC()
	}
	query := `INSERT INTO project_user (project_id, user_id, created, last_updated) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		m.ProjectID, m.UserID, formatTimestamp(m.CreatedAt), nullableTimeToString(m.LastUpdated))
	if err != nil {
		return mapWriteError(fmt.Sprintf("adding user %d to project %d", m.UserID, m.ProjectID), err)
	}
	return nil
}

func (r *SQLMembershipRepo) Remove(ctx context.Context, projectID, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM project_user WHERE project_id = ? AND user_id = ?`, projectID, userID)
	if err != nil {
		return fmt.Errorf("removing project member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d in project %d: %w", userID, projectID, ErrNotFound)
	}
	return nil
}

func (r *SQLMembershipRepo) ListUsers(ctx context.Context, projectID int64) ([]*domain.User, error) {
	query := `SELECT u.id, u.enabled, u.username, u.email, u.password, u.public_key, u.first_name,
		u.last_name, u.contact_number, u.institution, u.created, u.last_updated
		FROM ilifu_user u
		JOIN project_user pu ON pu.user_id = u.id
		WHERE pu.project_id = ?
		ORDER BY u.username`
	return queryUsers(ctx, r.db, query, projectID)
}

func (r *SQLMembershipRepo) ListProjects(ctx context.Context, userID int64) ([]*domain.Project, error) {
	query := `SELECT p.id, p.enabled, p.status, p.name, p.pi_user_id, p.co_pi_user_id, p.admin_user_id,
		p.level1, p.level2, p.level3, p.level4, p.level5, p.parent_resource_fraction,
		p.allocated_resources, p.resource_limits, p.created, p.last_updated
		FROM project p
		JOIN project_user pu ON pu.project_id = p.id
		WHERE pu.user_id = ?
		ORDER BY COALESCE(p.level1, 0), COALESCE(p.level2, 0), COALESCE(p.level3, 0),
		COALESCE(p.level4, 0), COALESCE(p.level5, 0)`
	projects := NewSQLProjectRepo(r.db)
	return projects.queryProjects(ctx, "listing member projects", query, userID)
}
