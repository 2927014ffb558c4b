package storage

import (
	"fmt"
	"io"

	"honeyfarmers/internal/app/port"
	"honeyfarmers/internal/infrastructure/configloader"
)

// Open returns the store selected by cfg and a closer for it.
func Open(cfg configloader.StorageConfig) (port.KeyValueStore, io.Closer, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nopCloser{}, nil
	case "sqlite":
		s, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
