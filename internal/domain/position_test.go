package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTreePosition_Forms(t *testing.T) {
	cases := map[string]TreePosition{
		"1.1.2":                 {1, 1, 2},
		"1,1,2":                 {1, 1, 2},
		"1 1 2":                 {1, 1, 2},
		"[1, 1, 2, NULL, NULL]": {1, 1, 2},
		"[1,3]":                 {1, 3},
		"  4 ":                  {4},
	}
	for in, want := range cases {
		got, err := ParseTreePosition(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}
}

func TestParseTreePosition_Root(t *testing.T) {
	for _, in := range []string{"", "root", "ROOT", "[]", "[NULL, NULL, NULL, NULL, NULL]"} {
		got, err := ParseTreePosition(in)
		require.NoError(t, err, "input %q", in)
		assert.True(t, got.IsRoot(), "input %q", in)
	}
}

func TestParseTreePosition_Rejects(t *testing.T) {
	for _, in := range []string{"1.x", "1.0", "1.-2", "[1, NULL, 2]"} {
		_, err := ParseTreePosition(in)
		require.Error(t, err, "input %q", in)
		assert.ErrorIs(t, err, ErrInvalidPosition)
	}
}

func TestParseTreePosition_SixLevelsParsesButFailsValidate(t *testing.T) {
	pos, err := ParseTreePosition("1.1.1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, 6, pos.Depth())
	assert.ErrorIs(t, pos.Validate(), ErrInvalidPosition)
}

func TestTreePosition_ParentAndChild(t *testing.T) {
	pos := TreePosition{1, 1, 2}
	assert.Equal(t, TreePosition{1, 1}, pos.Parent())
	assert.Equal(t, TreePosition{1, 1, 2, 4}, pos.Child(4))
	assert.Equal(t, 2, pos.Last())

	// Child must not alias the receiver's backing array.
	base := make(TreePosition, 2, 8)
	base[0], base[1] = 1, 1
	a := base.Child(1)
	b := base.Child(2)
	assert.Equal(t, TreePosition{1, 1, 1}, a)
	assert.Equal(t, TreePosition{1, 1, 2}, b)

	assert.True(t, RootPosition.Parent().IsRoot())
	assert.Equal(t, 0, RootPosition.Last())
}

func TestTreePosition_Ancestors(t *testing.T) {
	pos := TreePosition{1, 3, 2}
	assert.Equal(t, []TreePosition{{}, {1}, {1, 3}}, pos.Ancestors())
	assert.Empty(t, RootPosition.Ancestors())
}

func TestTreePosition_IsAncestorOf(t *testing.T) {
	assert.True(t, RootPosition.IsAncestorOf(TreePosition{1}))
	assert.True(t, TreePosition{1}.IsAncestorOf(TreePosition{1, 1, 2}))
	assert.False(t, TreePosition{1, 2}.IsAncestorOf(TreePosition{1, 1, 2}))
	assert.False(t, TreePosition{1, 1}.IsAncestorOf(TreePosition{1, 1}))
}

func TestTreePosition_KeyAndString(t *testing.T) {
	pos := TreePosition{1, 1, 2}
	assert.Equal(t, "1.1.2", pos.Key())
	assert.Equal(t, "[1, 1, 2, NULL, NULL]", pos.String())
	assert.Equal(t, "", RootPosition.Key())
	assert.Equal(t, "[NULL, NULL, NULL, NULL, NULL]", RootPosition.String())
}

func TestTreePosition_LevelsRoundTrip(t *testing.T) {
	pos := TreePosition{1, 3, 1}
	levels := pos.Levels()
	require.NotNil(t, levels[0])
	require.NotNil(t, levels[2])
	assert.Nil(t, levels[3])
	assert.Nil(t, levels[4])

	back, err := FromLevels(levels)
	require.NoError(t, err)
	assert.Equal(t, pos, back)
}

func TestFromLevels_RejectsGap(t *testing.T) {
	one := 1
	_, err := FromLevels([MaxTreeDepth]*int{&one, nil, &one, nil, nil})
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestTreePosition_Validate(t *testing.T) {
	assert.NoError(t, TreePosition{1, 2, 3, 4, 5}.Validate())
	assert.NoError(t, RootPosition.Validate())
	assert.ErrorIs(t, TreePosition{1, 0}.Validate(), ErrInvalidPosition)
}
