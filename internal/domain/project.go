package domain

import (
	"fmt"
	"time"
)

const maxProjectNameLen = 128

// Project is a node of the resource tree. ParentFraction is the share of the
// parent's allocation granted to this node.
type Project struct {
	ID                 int64
	Enabled            bool
	Status             ProjectStatus
	Name               string
	PIUserID           *int64
	CoPIUserID         *int64
	AdminUserID        *int64
	Position           TreePosition
	ParentFraction     float64
	AllocatedResources string
	ResourceLimits     string
	CreatedAt          time.Time
	LastUpdated        *time.Time
}

// NewRootProject returns the implicit root node. It is never stored.
func NewRootProject() *Project {
	return &Project{
		Enabled:        true,
		Status:         ProjectLive,
		Name:           RootProjectName,
		Position:       RootPosition,
		ParentFraction: 1,
	}
}

// RootProjectName labels the implicit root in listings.
const RootProjectName = "root"

// Validate checks the fields a stored project must satisfy.
func (p *Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if len(p.Name) > maxProjectNameLen {
		return fmt.Errorf("project name %q exceeds %d characters", p.Name, maxProjectNameLen)
	}
	if err := p.Position.Validate(); err != nil {
		return err
	}
	if p.Position.IsRoot() {
		return fmt.Errorf("%w: the root position is implicit and cannot be stored", ErrInvalidPosition)
	}
	if err := ValidateFraction(p.ParentFraction); err != nil {
		return err
	}
	if p.Status != "" && !p.Status.Valid() {
		return fmt.Errorf("invalid project status %q (want planning, live or disabled)", p.Status)
	}
	return nil
}

// ValidateFraction checks f lies in (0, 1].
func ValidateFraction(f float64) error {
	if !(f > 0 && f <= 1) {
		return fmt.Errorf("parent fraction %v must be in (0, 1]", f)
	}
	return nil
}

// Depth is the number of populated levels.
func (p *Project) Depth() int {
	return p.Position.Depth()
}

// DisplayLabel returns "NAME [1, 1, NULL, NULL, NULL]".
func (p *Project) DisplayLabel() string {
	return fmt.Sprintf("%s %s", p.Name, p.Position)
}
