package helpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// low iteration count keeps the suite fast; the count is read back from the hash
func testHasher() *PasswordHasher { return &PasswordHasher{Iterations: 1000} }

func TestPasswordHashVerify(t *testing.T) {
	h := testHasher()

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "1000."))
	assert.Len(t, strings.Split(hash, "."), 3)

	assert.True(t, h.Verify("correct horse", hash))
	assert.False(t, h.Verify("correct horsE", hash))
	assert.False(t, h.Verify("", hash))
}

func TestPasswordHashUsesRandomSalt(t *testing.T) {
	h := testHasher()
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("same", a))
	assert.True(t, h.Verify("same", b))
}

func TestPasswordHashRejectsBlank(t *testing.T) {
	for _, p := range []string{"", "   ", "\t\n"} {
		_, err := testHasher().Hash(p)
		assert.ErrorIs(t, err, ErrEmptyPassword)
	}
}

func TestPasswordVerifyKeepsEmbeddedIterations(t *testing.T) {
	old, err := (&PasswordHasher{Iterations: 1200}).Hash("pw")
	require.NoError(t, err)
	assert.True(t, testHasher().Verify("pw", old))
}

func TestPasswordVerifyMalformed(t *testing.T) {
	h := testHasher()
	valid, err := h.Hash("pw")
	require.NoError(t, err)
	parts := strings.Split(valid, ".")

	cases := map[string]string{
		"empty":             "",
		"two segments":      parts[0] + "." + parts[1],
		"four segments":     valid + ".AAAA",
		"non numeric iter":  "abc." + parts[1] + "." + parts[2],
		"negative iter":     "-5." + parts[1] + "." + parts[2],
		"bad salt base64":   parts[0] + ".***." + parts[2],
		"bad key base64":    parts[0] + "." + parts[1] + ".not base64!",
		"empty key segment": parts[0] + "." + parts[1] + ".",
	}
	for name, stored := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, h.Verify("pw", stored))
			})
		})
	}
}

func TestNewPasswordHasherDefault(t *testing.T) {
	assert.Equal(t, DefaultPasswordIterations, NewPasswordHasher(0).Iterations)
	assert.Equal(t, 300000, NewPasswordHasher(300000).Iterations)
}

func TestDummyHashIsStableAndCostsTheSame(t *testing.T) {
	h := &PasswordHasher{Iterations: 1300}
	d := h.DummyHash()
	assert.Equal(t, d, h.DummyHash())
	assert.True(t, strings.HasPrefix(d, "1300."))
	assert.Len(t, strings.Split(d, "."), 3)
	assert.False(t, h.Verify("s3cret-pass", d))
}
