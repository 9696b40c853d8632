package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProject() *Project {
	return &Project{
		Name:           "LADUMA",
		Status:         ProjectPlanning,
		Enabled:        true,
		Position:       TreePosition{1, 1, 1},
		ParentFraction: 0.2,
	}
}

func TestProjectValidate_Valid(t *testing.T) {
	assert.NoError(t, validProject().Validate())
}

func TestProjectValidate_FullFractionAllowed(t *testing.T) {
	p := validProject()
	p.ParentFraction = 1
	assert.NoError(t, p.Validate())
}

func TestProjectValidate_FractionOutOfRange(t *testing.T) {
	for _, f := range []float64{0, -0.1, 1.0001, 2} {
		p := validProject()
		p.ParentFraction = f
		err := p.Validate()
		require.Error(t, err, "fraction %v", f)
		assert.Contains(t, err.Error(), "(0, 1]")
	}
}

func TestProjectValidate_NameRequired(t *testing.T) {
	p := validProject()
	p.Name = ""
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestProjectValidate_NameTooLong(t *testing.T) {
	p := validProject()
	p.Name = strings.Repeat("A", 129)
	assert.Error(t, p.Validate())
}

func TestProjectValidate_RootPositionRejected(t *testing.T) {
	p := validProject()
	p.Position = RootPosition
	assert.ErrorIs(t, p.Validate(), ErrInvalidPosition)
}

func TestProjectValidate_TooDeep(t *testing.T) {
	p := validProject()
	p.Position = TreePosition{1, 1, 1, 1, 1, 1}
	assert.ErrorIs(t, p.Validate(), ErrInvalidPosition)
}

func TestProjectValidate_BadStatus(t *testing.T) {
	p := validProject()
	p.Status = "active"
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status")
}

func TestNewRootProject(t *testing.T) {
	root := NewRootProject()
	assert.True(t, root.Position.IsRoot())
	assert.Equal(t, 1.0, root.ParentFraction)
	assert.Equal(t, "root", root.Name)
}

func TestProjectDisplayLabel(t *testing.T) {
	assert.Equal(t, "LADUMA [1, 1, 1, NULL, NULL]", validProject().DisplayLabel())
}
