package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-bedpe/internal/bedpe"
)

const recordColumns = `name, chrom1, start1, end1, chrom2, start2, end2,
		score_raw, strand1, strand2, filter, declared_type, svtype, af,
		cipos_low, cipos_high, ciend_low, ciend_high,
		breakpoint1, breakpoint2, malformed, info`

// WriteRecords stores records keyed by name. A name already in the store, or
// repeated within recs, keeps the last record written.
// Rows are bulk-loaded into a staging table with the Appender API and then
// merged with INSERT OR REPLACE.
func (s *Store) WriteRecords(recs []*bedpe.Record) error {
	if len(recs) == 0 {
		return nil
	}

	// A single INSERT OR REPLACE cannot touch the same key twice.
	index := make(map[string]int, len(recs))
	deduped := make([]*bedpe.Record, 0, len(recs))
	for _, r := range recs {
		if i, ok := index[r.Name]; ok {
			deduped[i] = r
			continue
		}
		index[r.Name] = len(deduped)
		deduped = append(deduped, r)
	}

	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "DELETE FROM sv_records_staging"); err != nil {
		return fmt.Errorf("reset staging: %w", err)
	}
	if err := appendRecords(conn, deduped); err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, "INSERT OR REPLACE INTO sv_records SELECT * FROM sv_records_staging"); err != nil {
		return fmt.Errorf("merge records: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "DELETE FROM sv_records_staging"); err != nil {
		return fmt.Errorf("reset staging: %w", err)
	}
	return nil
}

func appendRecords(conn *sql.Conn, recs []*bedpe.Record) error {
	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "sv_records_staging")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}

	for _, r := range recs {
		var score any
		if v, ok := r.Score.Float(); ok {
			score = v
		}
		ciposLow, ciposHigh := interval(r.CIPOS)
		ciendLow, ciendHigh := interval(r.CIEND)

		if err := appender.AppendRow(
			r.Name, r.Chrom1, r.Start1, r.End1, r.Chrom2, r.Start2, r.End2,
			score, r.Score.String(), string(r.Orientation1), string(r.Orientation2),
			r.Filter, r.DeclaredType, r.SVType, r.AF,
			ciposLow, ciposHigh, ciendLow, ciendHigh,
			r.Breakpoint1, r.Breakpoint2, r.Malformed.String(), r.Annotation[0],
		); err != nil {
			appender.Close()
			return fmt.Errorf("append record %s: %w", r.Name, err)
		}
	}

	// Close flushes the remaining rows.
	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush appender: %w", err)
	}
	return nil
}

func interval(ci *bedpe.ConfidenceInterval) (low, high any) {
	if ci == nil {
		return nil, nil
	}
	return ci.Low, ci.High
}

// ClearRecords removes all stored records and source fingerprints.
func (s *Store) ClearRecords() error {
	if _, err := s.db.Exec("DELETE FROM sv_records"); err != nil {
		return err
	}
	if _, err := s.db.Exec("DELETE FROM sv_records_staging"); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM sources")
	return err
}

// LookupRecords returns the stored records with the given name. Only the
// authoritative annotation entry is kept in the store.
func (s *Store) LookupRecords(name string) ([]*bedpe.Record, error) {
	rows, err := s.db.Query(`SELECT `+recordColumns+` FROM sv_records WHERE name=?`, name)
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}
	defer rows.Close()

	var recs []*bedpe.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return recs, nil
}

func scanRecord(rows *sql.Rows) (*bedpe.Record, error) {
	var (
		r                   bedpe.Record
		scoreRaw, s1, s2    string
		malformed, info     string
		ciposLow, ciposHigh sql.NullInt64
		ciendLow, ciendHigh sql.NullInt64
	)
	if err := rows.Scan(
		&r.Name, &r.Chrom1, &r.Start1, &r.End1, &r.Chrom2, &r.Start2, &r.End2,
		&scoreRaw, &s1, &s2, &r.Filter, &r.DeclaredType, &r.SVType, &r.AF,
		&ciposLow, &ciposHigh, &ciendLow, &ciendHigh,
		&r.Breakpoint1, &r.Breakpoint2, &malformed, &info,
	); err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}

	m, err := bedpe.ParseMalformed(malformed)
	if err != nil {
		return nil, fmt.Errorf("scan record %s: %w", r.Name, err)
	}

	r.Score = bedpe.ParseScore(scoreRaw)
	r.Orientation1 = bedpe.Orientation(s1)
	r.Orientation2 = bedpe.Orientation(s2)
	r.Malformed = m
	r.Annotation = []string{info}
	r.Info = bedpe.ParseInfo(info)
	r.CIPOS = nullInterval(ciposLow, ciposHigh)
	r.CIEND = nullInterval(ciendLow, ciendHigh)
	return &r, nil
}

func nullInterval(low, high sql.NullInt64) *bedpe.ConfidenceInterval {
	if !low.Valid || !high.Valid {
		return nil
	}
	return &bedpe.ConfidenceInterval{Low: low.Int64, High: high.Int64}
}

// CountBySVType returns the number of stored records per annotation SVTYPE.
func (s *Store) CountBySVType() (map[string]int64, error) {
	rows, err := s.db.Query(`SELECT svtype, count(*) FROM sv_records GROUP BY svtype`)
	if err != nil {
		return nil, fmt.Errorf("count by svtype: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var svtype string
		var n int64
		if err := rows.Scan(&svtype, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[svtype] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

// RecordCount returns the total number of stored records.
func (s *Store) RecordCount() (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT count(*) FROM sv_records").Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}
