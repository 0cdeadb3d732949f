package engine

import "fmt"

// ConfigError reports a malformed pipeline document. It is fatal before
// any job starts.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid pipeline: %s: %s", e.Reason, e.Err)
	}

	return fmt.Sprintf("invalid pipeline: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
