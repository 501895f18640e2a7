// Package duckdb persists normalized BEDPE records in DuckDB so that
// converted call sets can be queried after the fact.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding normalized records.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

const recordSchema = `
	chrom1 VARCHAR,
	start1 BIGINT,
	end1 BIGINT,
	chrom2 VARCHAR,
	start2 BIGINT,
	end2 BIGINT,
	score DOUBLE,
	score_raw VARCHAR,
	strand1 VARCHAR,
	strand2 VARCHAR,
	filter VARCHAR,
	declared_type VARCHAR,
	svtype VARCHAR,
	af VARCHAR,
	cipos_low BIGINT,
	cipos_high BIGINT,
	ciend_low BIGINT,
	ciend_high BIGINT,
	breakpoint1 BIGINT,
	breakpoint2 BIGINT,
	malformed VARCHAR,
	info VARCHAR`

// ensureSchema creates tables if they don't exist.
// sv_records_staging has the same columns as sv_records without the key; the
// Appender fills it and WriteRecords merges it into sv_records.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sv_records (
	name VARCHAR PRIMARY KEY,` + recordSchema + `
)`); err != nil {
		return err
	}

	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sv_records_staging (
	name VARCHAR,` + recordSchema + `
)`); err != nil {
		return err
	}

	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sources (
		path VARCHAR,
		size BIGINT,
		mod_time TIMESTAMP,
		record_count BIGINT,
		PRIMARY KEY (path, size, mod_time)
	)`)
	return err
}
