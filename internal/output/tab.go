package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-bedpe/internal/bedpe"
)

// TabWriter writes normalized records in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#CHROM_A",
			"START_A",
			"END_A",
			"CHROM_B",
			"START_B",
			"END_B",
			"ID",
			"QUAL",
			"STRAND_A",
			"STRAND_B",
			"SVTYPE",
			"DECLARED_TYPE",
			"FILTER",
			"BREAKPOINT_A",
			"BREAKPOINT_B",
			"AF",
			"CIPOS",
			"CIEND",
			"MALFORMED",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single record.
func (tw *TabWriter) Write(rec *bedpe.Record) error {
	values := []string{
		rec.Chrom1,
		strconv.FormatInt(rec.Start1, 10),
		strconv.FormatInt(rec.End1, 10),
		rec.Chrom2,
		strconv.FormatInt(rec.Start2, 10),
		strconv.FormatInt(rec.End2, 10),
		rec.Name,
		orDash(rec.Score.String()),
		orDash(string(rec.Orientation1)),
		orDash(string(rec.Orientation2)),
		orDash(rec.SVType),
		orDash(rec.DeclaredType),
		orDash(rec.Filter),
		strconv.FormatInt(rec.Breakpoint1, 10),
		strconv.FormatInt(rec.Breakpoint2, 10),
		orDash(rec.AF),
		formatInterval(rec.CIPOS),
		formatInterval(rec.CIEND),
		rec.Malformed.String(),
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

func formatInterval(ci *bedpe.ConfidenceInterval) string {
	if ci == nil {
		return "-"
	}
	return ci.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
