package mask

import (
	"io"
	"sync"
)

var DefaultMask = []byte("***")

// NewStore collects secret values and produces writers which redact them
// from any stream passing through. Secrets are shared read-only inputs
// across job variants, the store is safe for concurrent use.
func NewStore(placeholder []byte) *Store {
	if len(placeholder) == 0 {
		placeholder = DefaultMask
	}

	return &Store{
		placeholder: placeholder,
	}
}

type Store struct {
	mu          sync.RWMutex
	placeholder []byte
	secrets     [][]byte
}

func (s *Store) AddSecrets(secrets ...[]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, secret := range secrets {
		if len(secret) == 0 {
			continue
		}

		s.secrets = append(s.secrets, secret)
	}
}

func (s *Store) Writer(w io.Writer) io.Writer {
	return &maskedWriter{
		w:     w,
		store: s,
	}
}
