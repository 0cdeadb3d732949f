package mask

import (
	"bytes"
	"io"
)

type maskedWriter struct {
	w     io.Writer
	store *Store
}

func (w *maskedWriter) Write(b []byte) (int, error) {
	n := len(b)

	w.store.mu.RLock()
	for _, secret := range w.store.secrets {
		b = bytes.ReplaceAll(b, secret, w.store.placeholder)
	}
	w.store.mu.RUnlock()

	if _, err := w.w.Write(b); err != nil {
		return 0, err
	}

	return n, nil
}
