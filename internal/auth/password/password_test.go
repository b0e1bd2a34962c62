package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := Hash("pw123456")
	require.NoError(t, err)
	require.NotEqual(t, "pw123456", hash)

	require.NoError(t, Compare(hash, "pw123456"))
	require.ErrorIs(t, Compare(hash, "wrong"), bcrypt.ErrMismatchedHashAndPassword)
}

func TestHashIsSalted(t *testing.T) {
	first, err := Hash("same")
	require.NoError(t, err)
	second, err := Hash("same")
	require.NoError(t, err)

	require.NotEqual(t, first, second)

	cost, err := bcrypt.Cost([]byte(first))
	require.NoError(t, err)
	require.Equal(t, Cost, cost)
}

func TestCompareDummyDoesNotPanic(t *testing.T) {
	CompareDummy("anything")
}

func TestHashRejectsOverlongPassword(t *testing.T) {
	_, err := Hash(strings.Repeat("a", 73))
	require.ErrorIs(t, err, ErrTooLong)
}
