package mask

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskedWriter(t *testing.T) {
	tests := []struct {
		name     string
		secrets  []string
		input    string
		expected string
	}{
		{
			name:     "no secrets passes through",
			input:    "hello world",
			expected: "hello world",
		},
		{
			name:     "single secret masked",
			secrets:  []string{"s3cret"},
			input:    "token is s3cret here",
			expected: "token is *** here",
		},
		{
			name:     "multiple occurrences masked",
			secrets:  []string{"s3cret"},
			input:    "s3cret and s3cret",
			expected: "*** and ***",
		},
		{
			name:     "multiple secrets masked",
			secrets:  []string{"alpha", "beta"},
			input:    "alpha beta gamma",
			expected: "*** *** gamma",
		},
		{
			name:     "empty secret ignored",
			secrets:  []string{""},
			input:    "untouched",
			expected: "untouched",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(nil)
			for _, secret := range tt.secrets {
				store.AddSecrets([]byte(secret))
			}

			var buf bytes.Buffer
			w := store.Writer(&buf)

			n, err := w.Write([]byte(tt.input))
			require.NoError(t, err)

			assert.Equal(t, len(tt.input), n)
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}
