// Package output provides writers for normalized BEDPE records.
package output

import "github.com/inodb/vibe-bedpe/internal/bedpe"

// RecordWriter is implemented by every output format.
type RecordWriter interface {
	WriteHeader() error
	Write(rec *bedpe.Record) error
	Flush() error
}
