package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxTreeDepth is the number of level columns backing a tree position.
const MaxTreeDepth = 5

// ErrInvalidPosition is returned for malformed or out-of-range tree positions.
var ErrInvalidPosition = errors.New("invalid tree position")

// TreePosition is the populated prefix of a project's level1..level5 columns.
// The empty position is the implicit root of the resource tree.
type TreePosition []int

// RootPosition is the implicit root. It carries 100% of the allocation.
var RootPosition = TreePosition{}

// ParseTreePosition accepts "1.1.2", "1,1,2", "1 1 2" and "[1, 1, 2, NULL, NULL]".
// An empty string, "root" or "[]" parse as the root. Depth is not checked here;
// call Validate before persisting.
func ParseTreePosition(s string) (TreePosition, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "root") {
		return TreePosition{}, nil
	}

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == ',' || r == ' ' || r == '/'
	})

	pos := make(TreePosition, 0, len(fields))
	sawNull := false
	for _, f := range fields {
		if strings.EqualFold(f, "null") {
			sawNull = true
			continue
		}
		if sawNull {
			return nil, fmt.Errorf("%w: %q has a value after NULL", ErrInvalidPosition, s)
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidPosition, f)
		}
		if n <= 0 {
			return nil, fmt.Errorf("%w: component %d must be positive", ErrInvalidPosition, n)
		}
		pos = append(pos, n)
	}
	return pos, nil
}

// FromLevels builds a position from nullable level columns. A NULL followed by
// a non-NULL level is rejected.
func FromLevels(levels [MaxTreeDepth]*int) (TreePosition, error) {
	pos := make(TreePosition, 0, MaxTreeDepth)
	for i, l := range levels {
		if l == nil {
			for j := i + 1; j < MaxTreeDepth; j++ {
				if levels[j] != nil {
					return nil, fmt.Errorf("%w: level%d set after NULL level%d", ErrInvalidPosition, j+1, i+1)
				}
			}
			break
		}
		pos = append(pos, *l)
	}
	return pos, nil
}

// Levels expands the position into the five nullable level columns.
func (p TreePosition) Levels() [MaxTreeDepth]*int {
	var out [MaxTreeDepth]*int
	for i := 0; i < len(p) && i < MaxTreeDepth; i++ {
		v := p[i]
		out[i] = &v
	}
	return out
}

func (p TreePosition) Depth() int { return len(p) }

func (p TreePosition) IsRoot() bool { return len(p) == 0 }

// Parent drops the deepest component. The root is its own parent.
func (p TreePosition) Parent() TreePosition {
	if len(p) == 0 {
		return TreePosition{}
	}
	out := make(TreePosition, len(p)-1)
	copy(out, p[:len(p)-1])
	return out
}

// Child returns the position of the n-th child of p.
func (p TreePosition) Child(n int) TreePosition {
	out := make(TreePosition, len(p), len(p)+1)
	copy(out, p)
	return append(out, n)
}

// Last returns the final component, or 0 for the root.
func (p TreePosition) Last() int {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1]
}

// Ancestors returns every proper ancestor from the root downwards, root included.
func (p TreePosition) Ancestors() []TreePosition {
	out := make([]TreePosition, 0, len(p))
	for i := 0; i < len(p); i++ {
		a := make(TreePosition, i)
		copy(a, p[:i])
		out = append(out, a)
	}
	return out
}

// IsAncestorOf reports whether p is a proper prefix of other.
func (p TreePosition) IsAncestorOf(other TreePosition) bool {
	if len(p) >= len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

func (p TreePosition) Equal(other TreePosition) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Key is the canonical dotted form stored in the posn column. Root is "".
func (p TreePosition) Key() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ".")
}

// String renders all five levels the way the resource tree is documented,
// e.g. [1, 1, 2, NULL, NULL].
func (p TreePosition) String() string {
	width := MaxTreeDepth
	if len(p) > width {
		width = len(p)
	}
	parts := make([]string, width)
	for i := range parts {
		if i < len(p) {
			parts[i] = strconv.Itoa(p[i])
		} else {
			parts[i] = "NULL"
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Validate checks depth and component positivity.
func (p TreePosition) Validate() error {
	if len(p) > MaxTreeDepth {
		return fmt.Errorf("%w: depth %d exceeds %d levels", ErrInvalidPosition, len(p), MaxTreeDepth)
	}
	for i, v := range p {
		if v <= 0 {
			return fmt.Errorf("%w: level%d must be positive, got %d", ErrInvalidPosition, i+1, v)
		}
	}
	return nil
}
