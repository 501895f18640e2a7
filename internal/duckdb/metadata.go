package duckdb

import (
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
// ModTime is truncated to the microsecond resolution of DuckDB timestamps.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime().UTC().Truncate(time.Microsecond),
	}, nil
}

// RecordSource marks a BEDPE file as imported with the given record count.
func (s *Store) RecordSource(fp FileFingerprint, records int) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO sources (path, size, mod_time, record_count)
		VALUES (?, ?, ?, ?)`, fp.Path, fp.Size, fp.ModTime, int64(records))
	if err != nil {
		return fmt.Errorf("record source: %w", err)
	}
	return nil
}

// HasSource reports whether the exact file (path, size and mtime) was imported.
func (s *Store) HasSource(fp FileFingerprint) (bool, error) {
	var n int64
	err := s.db.QueryRow(`SELECT count(*) FROM sources WHERE path=? AND size=? AND mod_time=?`,
		fp.Path, fp.Size, fp.ModTime).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query source: %w", err)
	}
	return n > 0, nil
}
