package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name     string
		axes     map[string][]string
		expected []Binding
	}{
		{
			name:     "nil matrix yields one empty binding",
			axes:     nil,
			expected: []Binding{{}},
		},
		{
			name: "single axis",
			axes: map[string][]string{"os": {"ubuntu", "macos"}},
			expected: []Binding{
				{"os": "ubuntu"},
				{"os": "macos"},
			},
		},
		{
			name: "two axes full product",
			axes: map[string][]string{
				"os":      {"ubuntu", "macos"},
				"version": {"3.11", "3.12", "3.13"},
			},
			expected: []Binding{
				{"os": "ubuntu", "version": "3.11"},
				{"os": "ubuntu", "version": "3.12"},
				{"os": "ubuntu", "version": "3.13"},
				{"os": "macos", "version": "3.11"},
				{"os": "macos", "version": "3.12"},
				{"os": "macos", "version": "3.13"},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			bindings, err := Expand(test.axes)
			require.NoError(t, err)
			assert.Equal(t, test.expected, bindings)
		})
	}
}

func TestExpandDeterministic(t *testing.T) {
	axes := map[string][]string{
		"arch":    {"amd64", "arm64"},
		"os":      {"linux", "darwin"},
		"version": {"1.24", "1.25"},
	}

	first, err := Expand(axes)
	require.NoError(t, err)
	assert.Len(t, first, 8)

	for i := 0; i < 10; i++ {
		again, err := Expand(axes)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestExpandEmptyAxis(t *testing.T) {
	_, err := Expand(map[string][]string{
		"os":      {"ubuntu"},
		"version": {},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyAxis)
}

func TestBindingName(t *testing.T) {
	binding := Binding{"version": "3.12", "os": "ubuntu"}
	assert.Equal(t, "ubuntu-3.12", binding.Name())

	assert.Equal(t, "", Binding{}.Name())
}
