package matrix

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEmptyAxis rejects a matrix with an axis that has no values. The
// cartesian product would be empty and silently drop the whole job.
var ErrEmptyAxis = errors.New("matrix axis has no values")

// Binding assigns one concrete value to every axis of a matrix.
type Binding map[string]string

// Name derives a stable suffix for a job variant by joining the axis
// values in sorted axis order.
func (b Binding) Name() string {
	axes := make([]string, 0, len(b))
	for axis := range b {
		axes = append(axes, axis)
	}

	sort.Strings(axes)

	values := make([]string, 0, len(axes))
	for _, axis := range axes {
		values = append(values, b[axis])
	}

	return strings.Join(values, "-")
}

// Expand computes the full cartesian product of the given axes. The
// result ordering is deterministic: axes are iterated in sorted name
// order, values in declared order. A nil or empty matrix expands to a
// single empty binding.
func Expand(axes map[string][]string) ([]Binding, error) {
	names := make([]string, 0, len(axes))
	for name, values := range axes {
		if len(values) == 0 {
			return nil, fmt.Errorf("axis %s: %w", name, ErrEmptyAxis)
		}

		names = append(names, name)
	}

	sort.Strings(names)

	bindings := []Binding{{}}
	for _, name := range names {
		next := make([]Binding, 0, len(bindings)*len(axes[name]))
		for _, binding := range bindings {
			for _, value := range axes[name] {
				expanded := make(Binding, len(binding)+1)
				for k, v := range binding {
					expanded[k] = v
				}

				expanded[name] = value
				next = append(next, expanded)
			}
		}

		bindings = next
	}

	return bindings, nil
}
