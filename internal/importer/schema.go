package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// TreeFile is the top-level structure of a resource tree import file.
type TreeFile struct {
	Users    []UserImport    `yaml:"users" json:"users" validate:"dive"`
	Projects []ProjectImport `yaml:"projects" json:"projects" validate:"dive"`
	Members  []MemberImport  `yaml:"members" json:"members" validate:"dive"`
}

// UserImport defines a user in the import file. Password is plain text and
// is hashed before it is stored.
type UserImport struct {
	Username      string `yaml:"username" json:"username" validate:"required,max=120,username"`
	Email         string `yaml:"email" json:"email" validate:"required,max=120,email"`
	FirstName     string `yaml:"first_name" json:"first_name" validate:"required,max=120"`
	LastName      string `yaml:"last_name" json:"last_name" validate:"required,max=120"`
	Institution   string `yaml:"institution" json:"institution" validate:"required"`
	ContactNumber string `yaml:"contact_number,omitempty" json:"contact_number,omitempty" validate:"omitempty,max=20"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
	PublicKey     string `yaml:"public_key,omitempty" json:"public_key,omitempty" validate:"omitempty,authorizedkey"`
	Enabled       *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// ProjectImport defines a project node. Position is a tree position such as
// "1.3.1" or "[1, 3, 1, NULL, NULL]"; PI, CoPI and Admin are usernames.
type ProjectImport struct {
	Name               string  `yaml:"name" json:"name" validate:"required,max=128"`
	Position           string  `yaml:"position" json:"position" validate:"required,treeposn"`
	ParentFraction     float64 `yaml:"parent_fraction" json:"parent_fraction" validate:"gt=0,lte=1"`
	Status             string  `yaml:"status,omitempty" json:"status,omitempty" validate:"omitempty,oneof=planning live disabled"`
	Enabled            *bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	PI                 string  `yaml:"pi,omitempty" json:"pi,omitempty"`
	CoPI               string  `yaml:"co_pi,omitempty" json:"co_pi,omitempty"`
	Admin              string  `yaml:"admin,omitempty" json:"admin,omitempty"`
	AllocatedResources string  `yaml:"allocated_resources,omitempty" json:"allocated_resources,omitempty"`
	ResourceLimits     string  `yaml:"resource_limits,omitempty" json:"resource_limits,omitempty"`
}

// MemberImport links a user to a project by name.
type MemberImport struct {
	Project string `yaml:"project" json:"project" validate:"required"`
	User    string `yaml:"user" json:"user" validate:"required"`
}

// LoadTreeFile reads a tree file. Files ending in .json are decoded as JSON,
// everything else as YAML.
func LoadTreeFile(path string) (*TreeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a YAML tree file, rejecting unknown keys.
func ParseYAML(data []byte) (*TreeFile, error) {
	var f TreeFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing tree file: %w", err)
	}
	return &f, nil
}

// ParseJSON decodes a JSON tree file, rejecting unknown keys.
func ParseJSON(data []byte) (*TreeFile, error) {
	var f TreeFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing tree file: %w", err)
	}
	return &f, nil
}
