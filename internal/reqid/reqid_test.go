package reqid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	ctx, id := NewContext(context.Background())
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, id, got)
	require.Positive(t, id)

	_, ok = FromContext(context.Background())
	require.False(t, ok, "unexpected id in empty context")
}

func TestNewContext_Distinct(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 100; i++ {
		_, id := NewContext(context.Background())
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
}
