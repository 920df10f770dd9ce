package store

import (
	"fmt"

	"floodgate-hq/floodgate/pkg/config"
)

// New creates the counter store backend selected by the configuration.
func New(cfg config.StoreConfig) (Backend, error) {
	kind, err := ParseKind(cfg.Backend)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindMemory:
		return NewMemoryBackendWithConfig(MemoryBackendConfig{
			MaxEntries: cfg.Memory.MaxEntries,
		}), nil

	case KindRedis:
		backend, err := NewRedisBackend(RedisBackendConfig{
			URL:         cfg.Redis.URL,
			Host:        cfg.Redis.Host,
			Port:        cfg.Redis.Port,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			SSL:         cfg.Redis.SSL,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis backend: %w", err)
		}
		return backend, nil

	case KindSQLite:
		backend, err := NewSQLiteBackendWithConfig(SQLiteBackendConfig{
			Path:        cfg.SQLite.Path,
			BusyTimeout: cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite backend: %w", err)
		}
		return backend, nil

	default:
		return nil, fmt.Errorf("unsupported store backend kind %v", kind)
	}
}
