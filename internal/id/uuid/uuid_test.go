package uuid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratorRunIDsAreOrderedV7(t *testing.T) {
	t.Parallel()

	gen := New()
	first, err := gen.NewRawID()
	require.NoError(t, err)
	second, err := gen.NewRawID()
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.EqualValues(t, 7, first.Version())
	require.Less(t, first.String(), second.String())
}
