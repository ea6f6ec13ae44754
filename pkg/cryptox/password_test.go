package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hashers() map[string]PasswordHasher {
	return map[string]PasswordHasher{
		"bcrypt":   BcryptHasher{Cost: bcrypt.MinCost},
		"argon2id": Argon2Hasher{Pepper: "test-pepper"},
	}
}

func TestPasswordHashers_RoundTrip(t *testing.T) {
	t.Parallel()

	passwords := []string{"Str0ng!Pass", "P@ssw0rd!#$%^&*()", "   spaces   ", "пароль🔒密码Aa1!"}

	for name, h := range hashers() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			for _, pw := range passwords {
				encoded, err := h.Hash(pw)
				require.NoError(t, err)
				require.NotContains(t, encoded, pw)
				require.NoError(t, h.Verify(pw, encoded))
				require.ErrorIs(t, h.Verify(pw+"x", encoded), ErrPasswordMismatch)
			}
		})
	}
}

func TestPasswordHashers_UniqueSalts(t *testing.T) {
	t.Parallel()

	for name, h := range hashers() {
		t.Run(name, func(t *testing.T) {
			a, err := h.Hash("samepassword")
			require.NoError(t, err)
			b, err := h.Hash("samepassword")
			require.NoError(t, err)
			require.NotEqual(t, a, b)
		})
	}
}

func TestBcryptHasher_DefaultCost(t *testing.T) {
	t.Parallel()

	encoded, err := BcryptHasher{}.Hash("Str0ng!Pass")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(encoded))
	require.NoError(t, err)
	require.Equal(t, DefaultBcryptCost, cost)
}

func TestBcryptHasher_RejectsOverlongInput(t *testing.T) {
	t.Parallel()

	_, err := BcryptHasher{Cost: bcrypt.MinCost}.Hash(strings.Repeat("a", 73))
	require.Error(t, err)
}

func TestArgon2Hasher_PepperMatters(t *testing.T) {
	t.Parallel()

	encoded, err := Argon2Hasher{Pepper: "one"}.Hash("Str0ng!Pass")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=19456,t=2,p=1$"))
	require.ErrorIs(t, Argon2Hasher{Pepper: "two"}.Verify("Str0ng!Pass", encoded), ErrPasswordMismatch)
}

func TestPasswordHashers_InvalidEncoding(t *testing.T) {
	t.Parallel()

	argon := Argon2Hasher{}
	for _, bad := range []string{
		"",
		"$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=19456",
		"$argon2id$v=19$invalid$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA",
		"$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
	} {
		err := argon.Verify("pw", bad)
		require.ErrorIs(t, err, ErrInvalidHashFormat, bad)
	}

	err := BcryptHasher{}.Verify("pw", "not-a-bcrypt-hash")
	require.ErrorIs(t, err, ErrInvalidHashFormat)
}

func TestNewPasswordHasher(t *testing.T) {
	t.Parallel()

	h, err := NewPasswordHasher("bcrypt", 10, "")
	require.NoError(t, err)
	require.Equal(t, BcryptHasher{Cost: 10}, h)

	h, err = NewPasswordHasher("ARGON2ID", 0, "pep")
	require.NoError(t, err)
	require.Equal(t, Argon2Hasher{Pepper: "pep"}, h)

	_, err = NewPasswordHasher("md5", 0, "")
	require.Error(t, err)
}
