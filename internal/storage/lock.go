package storage

import (
	"path/filepath"

	"github.com/angelmondragon/warehouse-backend/pkg/config"
)

// LockFileName is the lock every process that writes the store must hold
// for its whole load, mutate, save span.
const LockFileName = ".warehouse.lock"

// LockPath places the lock file beside the data it guards, so every process
// configured for the same store contends on the same file.
func LockPath(cfg config.StorageConfig) string {
	dataPath := cfg.EntriesPath
	if cfg.NormalizedDriver() == config.StorageDriverSQLite {
		dataPath = cfg.SQLitePath
	}
	return filepath.Join(filepath.Dir(dataPath), LockFileName)
}
