package config

import "sync"

var (
	defaultMu    sync.Mutex
	defaultStore *Store
)

// Default returns the process-wide Store, loading it with opts on first
// use. Later calls return the same Store and ignore opts.
//
// Only the entry point should call this; everything else takes a *Store.
func Default(opts Options) (*Store, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultStore != nil {
		return defaultStore, nil
	}

	s, err := Open(opts)
	if err != nil {
		return nil, err
	}
	defaultStore = s
	return defaultStore, nil
}

// ResetDefault forgets the process-wide Store so the next Default call
// loads again.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultStore = nil
}
