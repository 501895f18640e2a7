package bedpe

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Reader reads BEDPE rows from a file or stream.
type Reader struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	normalizer *Normalizer
	lineNumber int
	header     []string
	pending    string // first data line read while consuming the header
	hasPending bool
}

// NewReader opens a BEDPE file. Gzipped input is detected by its magic bytes.
// A path of "-" reads from stdin.
func NewReader(path string) (*Reader, error) {
	if path == "-" {
		return NewReaderFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bedpe file: %w", err)
	}

	r, err := newReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.file = file
	return r, nil
}

// NewReaderFromReader creates a Reader over an io.Reader, plain or gzipped.
func NewReaderFromReader(src io.Reader) (*Reader, error) {
	return newReader(src)
}

func newReader(src io.Reader) (*Reader, error) {
	r := &Reader{normalizer: defaultNormalizer}

	br := bufio.NewReader(src)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read bedpe header: %w", err)
	}

	// gzip magic number (0x1f, 0x8b)
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		r.gzipReader, err = gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r.reader = bufio.NewReader(r.gzipReader)
	} else {
		r.reader = br
	}

	if err := r.readHeader(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// SetNormalizer sets the Normalizer used by Next.
func (r *Reader) SetNormalizer(n *Normalizer) {
	r.normalizer = n
}

// readHeader consumes leading '#' lines and keeps the first data line.
func (r *Reader) readHeader() error {
	for {
		line, err := r.readLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			r.header = append(r.header, line)
			continue
		}
		r.pending = line
		r.hasPending = true
		return nil
	}
}

func (r *Reader) readLine() (string, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	r.lineNumber++
	return strings.TrimRight(line, "\r\n"), nil
}

// NextFields returns the tab-separated fields of the next data row and its
// line number. Returns nil, 0, nil when there are no more rows.
func (r *Reader) NextFields() ([]string, int, error) {
	if r.hasPending {
		r.hasPending = false
		return strings.Split(r.pending, "\t"), r.lineNumber, nil
	}

	for {
		line, err := r.readLine()
		if err == io.EOF {
			return nil, 0, nil
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read bedpe line: %w", err)
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return strings.Split(line, "\t"), r.lineNumber, nil
	}
}

// Next reads and normalizes the next row.
// Returns nil, nil when there are no more rows.
func (r *Reader) Next() (*Record, error) {
	fields, line, err := r.NextFields()
	if err != nil || fields == nil {
		return nil, err
	}

	rec, err := r.normalizer.Normalize(fields)
	if err != nil {
		return nil, &ParseError{Line: line, Err: err}
	}
	return rec, nil
}

// Header returns the '#' lines that preceded the first data row.
func (r *Reader) Header() []string {
	return r.header
}

// LineNumber returns the number of lines read so far.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Close closes the reader and the underlying file, if any.
func (r *Reader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
