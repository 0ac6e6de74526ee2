package stats

import "fmt"

// Open returns the store for the named backend ("json" or "sqlite").
func Open(backend, path string, now Clock) (Store, error) {
	switch backend {
	case "", "json":
		s, err := NewFileStore(path, now)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := NewSQLiteStore(path, now)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown stats backend %q", backend)
	}
}
