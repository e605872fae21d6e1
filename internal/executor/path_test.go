package executor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPath_String(t *testing.T) {
	tests := []struct {
		path Path
		want string
	}{
		{nil, ""},
		{Path{"search"}, "search"},
		{Path{"search", "items", 2}, "search.items[2]"},
		{Path{"matrix", 0, 1, "cell"}, "matrix[0][1].cell"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.path.String())
	}
}

func TestAppendPath_DoesNotShareBacking(t *testing.T) {
	base := make(Path, 1, 4)
	base[0] = "root"
	a := appendPath(base, "a")
	b := appendPath(base, "b")
	require.Equal(t, Path{"root", "a"}, a)
	require.Equal(t, Path{"root", "b"}, b)
}

func TestSlot_Nullify(t *testing.T) {
	var stored []string
	outer := &slot{clear: func() { stored = append(stored, "outer") }}
	inner := &slot{parent: outer, clear: func() { stored = append(stored, "inner") }}

	require.True(t, inner.live())
	outer.nullify()
	outer.nullify()
	require.False(t, inner.live())
	require.Equal(t, []string{"outer"}, stored)
}
