package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRegistration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		email    string
		password string
		rule     string
	}{
		{"valid", "alice_01", "alice@example.com", "Secr3t!pass", ""},
		{"username too short", "al", "alice@example.com", "Secr3t!pass", RuleUsernameLength},
		{"username too long", strings.Repeat("a", 31), "alice@example.com", "Secr3t!pass", RuleUsernameLength},
		{"username bad charset", "alice smith", "alice@example.com", "Secr3t!pass", RuleUsernameCharset},
		{"username unicode", "ålice", "alice@example.com", "Secr3t!pass", RuleUsernameCharset},
		{"email no at", "alice", "alice.example.com", "Secr3t!pass", RuleEmailFormat},
		{"email two ats", "alice", "a@b@example.com", "Secr3t!pass", RuleEmailFormat},
		{"email empty local", "alice", "@example.com", "Secr3t!pass", RuleEmailFormat},
		{"email empty domain", "alice", "alice@", "Secr3t!pass", RuleEmailFormat},
		{"password short", "alice", "alice@example.com", "Sh0rt!", RulePasswordLength},
		{"password too long", "alice", "alice@example.com", "Aa1!" + strings.Repeat("x", 69), RulePasswordTooLong},
		{"password no lower", "alice", "alice@example.com", "SECR3T!PASS", RulePasswordLower},
		{"password no upper", "alice", "alice@example.com", "secr3t!pass", RulePasswordUpper},
		{"password no digit", "alice", "alice@example.com", "Secret!pass", RulePasswordDigit},
		{"password no symbol", "alice", "alice@example.com", "Secr3tpass", RulePasswordSymbol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateRegistration(tt.username, tt.email, tt.password)
			if tt.rule == "" {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrInvalidInput)
			var inv *InvalidInputError
			require.ErrorAs(t, err, &inv)
			require.Equal(t, tt.rule, inv.Rule)
		})
	}
}
