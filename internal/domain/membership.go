package domain

import "time"

// ProjectMember links a user to a project.
type ProjectMember struct {
	ProjectID   int64
	UserID      int64
	CreatedAt   time.Time
	LastUpdated *time.Time
}

// Allocation is a project's root-relative share of the resource tree.
type Allocation struct {
	Project   *Project
	Effective float64
	// Chain holds the stored ancestors root-most first, ending with Project.
	Chain []*Project
}

// Percent returns Effective scaled to 0..100.
func (a *Allocation) Percent() float64 {
	return a.Effective * 100
}
