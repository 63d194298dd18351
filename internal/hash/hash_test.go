package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/task_manager/internal/domain"
)

func TestHasher_HashAndVerify(t *testing.T) {
	t.Parallel()

	h := New(bcrypt.MinCost)
	hashed, err := h.Hash("pw123")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123", hashed)

	assert.True(t, h.Verify("pw123", hashed))
	assert.False(t, h.Verify("pw124", hashed))
}

func TestHasher_SaltedHashesDiffer(t *testing.T) {
	t.Parallel()

	h := New(bcrypt.MinCost)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHasher_VerifyMalformedHash(t *testing.T) {
	t.Parallel()

	h := New(bcrypt.MinCost)
	for _, bad := range []string{"", "not-a-hash", "$2a$04$short"} {
		assert.False(t, h.Verify("pw", bad), bad)
	}
}

func TestNew_OutOfRangeCostFallsBackToDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, bcrypt.DefaultCost, New(0).Cost)
	assert.Equal(t, bcrypt.DefaultCost, New(99).Cost)
	assert.Equal(t, 12, New(12).Cost)
}

func TestHasher_PasswordOver72BytesIsValidationError(t *testing.T) {
	t.Parallel()

	h := New(bcrypt.MinCost)
	_, err := h.Hash(strings.Repeat("é", 40))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.Hash(strings.Repeat("a", 72))
	assert.NoError(t, err)
}
