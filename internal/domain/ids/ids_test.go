package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewULID(t *testing.T) {
	id, err := NewULID()
	require.NoError(t, err)
	require.Len(t, id, 26)
	require.True(t, IsULID(id))
}

func TestNewULIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := NewULID()
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestIsULID(t *testing.T) {
	require.True(t, IsULID("01HQZX3Y4K6F7G8H9J0K1M2N3P"))
	require.True(t, IsULID("01hqzx3y4k6f7g8h9j0k1m2n3p"))

	require.False(t, IsULID(""))
	require.False(t, IsULID("not-a-ulid"))
	require.False(t, IsULID("01HQZX3Y4K6F7G8H9J0K1M2N"))    // too short
	require.False(t, IsULID("01HQZX3Y4K6F7G8H9J0K1M2N3PQQ")) // too long
	require.False(t, IsULID("01HQZX3Y4K6F7G8H9J0K1M2N3I"))   // I not in alphabet
}

func TestValidateULID(t *testing.T) {
	require.NoError(t, ValidateULID("01HQZX3Y4K6F7G8H9J0K1M2N3P"))
	require.ErrorIs(t, ValidateULID("nope"), ErrInvalidULID)
	require.ErrorIs(t, ValidateULID(""), ErrInvalidULID)
}
