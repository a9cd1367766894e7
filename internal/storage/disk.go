package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Usage is the on-disk footprint of the search artifacts.
type Usage struct {
	VectorBytes   int64 `json:"vector_bytes"`
	DatabaseBytes int64 `json:"database_bytes"`
}

// Total returns the combined size.
func (u Usage) Total() int64 { return u.VectorBytes + u.DatabaseBytes }

// DiskUsage measures the vector file and the catalog database. SQLite keeps
// WAL and shared-memory files next to the database; those count too.
func DiskUsage(vectorPath, databasePath string) (Usage, error) {
	var u Usage
	var err error
	if u.VectorBytes, err = DiskUsageBytes(vectorPath); err != nil {
		return Usage{}, err
	}
	if databasePath != "" {
		u.DatabaseBytes, err = DiskUsageBytes(databasePath, databasePath+"-wal", databasePath+"-shm")
		if err != nil {
			return Usage{}, err
		}
	}
	return u, nil
}

// DiskUsageBytes returns the total size in bytes of the given paths.
// Each path may be a file or a directory (recursively summed).
// Missing paths and empty strings contribute 0.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			total += fi.Size()
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
