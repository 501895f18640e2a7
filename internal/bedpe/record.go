// Package bedpe parses BEDPE structural-variant rows into normalized mate-pair
// records with breakpoints restored to their originally reported positions.
package bedpe

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MinFields is the minimum number of columns in a BEDPE row: ten interval
// and pair columns, the type and filter columns, and at least one annotation.
const MinFields = 13

// MissingPlaceholder marks a mate whose annotation entry was not available.
const MissingPlaceholder = "MISSING"

// SVTypeBreakend is the SVTYPE of breakend records.
const SVTypeBreakend = "BND"

// Annotation keys read during normalization.
const (
	KeySVType = "SVTYPE"
	KeyAF     = "AF"
	KeyCIPOS  = "CIPOS"
	KeyCIEND  = "CIEND"
)

// Column indices of the fixed BEDPE fields.
const (
	colChrom1 = iota
	colStart1
	colEnd1
	colChrom2
	colStart2
	colEnd2
	colName
	colScore
	colStrand1
	colStrand2
	colType
	colFilter
	colAnnotation
)

// Orientation is the strand of one mate.
type Orientation string

const (
	Forward Orientation = "+"
	Reverse Orientation = "-"
)

// Malformed records which mate's annotation entry was the MISSING placeholder.
type Malformed int

const (
	MalformedNone Malformed = iota
	MalformedMissingFirst
	MalformedMissingSecond
)

func (m Malformed) String() string {
	switch m {
	case MalformedNone:
		return "none"
	case MalformedMissingFirst:
		return "missing_first"
	case MalformedMissingSecond:
		return "missing_second"
	default:
		return fmt.Sprintf("Malformed(%d)", int(m))
	}
}

// ParseMalformed is the inverse of Malformed.String.
func ParseMalformed(s string) (Malformed, error) {
	for _, m := range []Malformed{MalformedNone, MalformedMissingFirst, MalformedMissingSecond} {
		if m.String() == s {
			return m, nil
		}
	}
	return MalformedNone, fmt.Errorf("unknown malformed state %q", s)
}

// Score is a BEDPE score column. All-digit tokens are numeric; anything else
// (such as the "." missing-value marker) is kept verbatim.
type Score struct {
	raw     string
	value   float64
	numeric bool
}

// ParseScore coerces a raw score token.
func ParseScore(raw string) Score {
	if !isDigits(raw) {
		return Score{raw: raw}
	}
	// Only ErrRange is possible here, in which case v is ±Inf.
	v, _ := strconv.ParseFloat(raw, 64)
	return Score{raw: raw, value: v, numeric: true}
}

// Float returns the numeric score and whether the score is numeric.
func (s Score) Float() (float64, bool) {
	return s.value, s.numeric
}

// IsNumeric reports whether the raw token was all digits.
func (s Score) IsNumeric() bool {
	return s.numeric
}

// String returns the raw token.
func (s Score) String() string {
	return s.raw
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ConfidenceInterval is a (low, high) offset pair around a mate's position.
type ConfidenceInterval struct {
	Low  int64
	High int64
}

func (ci ConfidenceInterval) String() string {
	return fmt.Sprintf("%d,%d", ci.Low, ci.High)
}

// Record is one normalized BEDPE mate pair.
type Record struct {
	Chrom1 string
	Start1 int64
	End1   int64
	Chrom2 string
	Start2 int64
	End2   int64

	Name         string
	Score        Score
	Orientation1 Orientation
	Orientation2 Orientation
	Filter       string
	DeclaredType string // SV type from the dedicated type column

	// Annotation is the annotation tail with the duplicate mate entry removed.
	// Annotation[0] is the authoritative entry.
	Annotation []string
	Malformed  Malformed
	Info       Info // parsed view of Annotation[0]

	SVType string
	AF     string // raw text, may be a list
	CIPOS  *ConfidenceInterval
	CIEND  *ConfidenceInterval

	Breakpoint1 int64
	Breakpoint2 int64
}

// IsBreakend reports whether the annotation SVTYPE is BND.
func (r *Record) IsBreakend() bool {
	return r.SVType == SVTypeBreakend
}

// Normalizer builds Records from raw BEDPE fields.
// It holds no per-record state and is safe for concurrent use.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer returns a Normalizer that reports SVTYPE mismatches on stderr.
func NewNormalizer() *Normalizer {
	return &Normalizer{logger: stderrLogger()}
}

// SetLogger sets the logger used for data-quality warnings.
func (n *Normalizer) SetLogger(l *zap.Logger) {
	n.logger = l
}

var defaultNormalizer = NewNormalizer()

// NewRecord normalizes one BEDPE row using the default Normalizer.
func NewRecord(fields []string) (*Record, error) {
	return defaultNormalizer.Normalize(fields)
}

// Normalize runs parse, repair, extract, validate and adjust over one row.
// The fields slice is not modified. On error no record is returned.
func (n *Normalizer) Normalize(fields []string) (*Record, error) {
	b := &builder{fields: fields, rec: &Record{}}

	if err := b.parse(); err != nil {
		return nil, err
	}
	b.repair()
	if err := b.extract(); err != nil {
		return nil, err
	}
	n.validate(b.rec)
	if err := b.adjust(); err != nil {
		return nil, err
	}

	return b.rec, nil
}

// validate warns when the annotation SVTYPE disagrees with the type column.
func (n *Normalizer) validate(r *Record) {
	if r.SVType == r.DeclaredType {
		return
	}
	n.logger.Warn("SVTYPE column does not match SVTYPE in annotation",
		zap.String("declared", r.DeclaredType),
		zap.String("svtype", r.SVType),
		zap.String("name", r.Name))
}

// builder carries one record through the normalization stages.
type builder struct {
	fields []string
	rec    *Record
}

func (b *builder) name() string {
	if b.rec.Name != "" {
		return b.rec.Name
	}
	if len(b.fields) > colName && b.fields[colName] != "" {
		return b.fields[colName]
	}
	return unknownName
}

func (b *builder) formatError(format string, args ...any) error {
	return &FormatError{Name: b.name(), Message: fmt.Sprintf(format, args...)}
}

// parse reads the fixed columns and captures the annotation tail.
func (b *builder) parse() error {
	f := b.fields
	if len(f) < MinFields {
		return b.formatError("expected at least %d columns, found %d", MinFields, len(f))
	}

	r := b.rec
	r.Name = f[colName]

	var err error
	if r.Start1, err = b.coordinate(colStart1, "start1"); err != nil {
		return err
	}
	if r.End1, err = b.coordinate(colEnd1, "end1"); err != nil {
		return err
	}
	if r.Start2, err = b.coordinate(colStart2, "start2"); err != nil {
		return err
	}
	if r.End2, err = b.coordinate(colEnd2, "end2"); err != nil {
		return err
	}

	r.Chrom1 = f[colChrom1]
	r.Chrom2 = f[colChrom2]
	r.Score = ParseScore(f[colScore])
	r.Orientation1 = Orientation(f[colStrand1])
	r.Orientation2 = Orientation(f[colStrand2])
	r.DeclaredType = f[colType]
	r.Filter = f[colFilter]
	r.Annotation = slices.Clone(f[colAnnotation:])

	return nil
}

func (b *builder) coordinate(col int, label string) (int64, error) {
	v, err := strconv.ParseInt(b.fields[col], 10, 64)
	if err != nil {
		return 0, b.formatError("invalid %s: %q", label, b.fields[col])
	}
	return v, nil
}

// repair backfills a MISSING mate entry and drops the duplicate entry.
// Both checks run; when both entries are MISSING the second check wins.
func (b *builder) repair() {
	r := b.rec
	ann := r.Annotation

	if ann[0] == MissingPlaceholder {
		r.Malformed = MalformedMissingFirst
		if len(ann) > 1 {
			ann[0] = ann[1]
		}
	}
	if len(ann) > 1 && ann[1] == MissingPlaceholder {
		r.Malformed = MalformedMissingSecond
	}

	if len(ann) > 1 {
		ann = slices.Delete(ann, 1, 2)
	}
	r.Annotation = ann
}

// extract reads SVTYPE and AF from the authoritative annotation entry.
func (b *builder) extract() error {
	r := b.rec
	r.Info = ParseInfo(r.Annotation[0])

	var ok bool
	if r.SVType, ok = r.Info.Get(KeySVType); !ok {
		return &MissingAnnotationKeyError{Name: b.name(), Key: KeySVType}
	}
	if r.AF, ok = r.Info.Get(KeyAF); !ok {
		return &MissingAnnotationKeyError{Name: b.name(), Key: KeyAF}
	}
	return nil
}

// adjust restores each mate's breakpoint from its left-shifted start.
func (b *builder) adjust() error {
	r := b.rec

	var err error
	r.Breakpoint1, r.CIPOS, err = b.breakpoint(r.Start1, r.Orientation1, KeyCIPOS)
	if err != nil {
		return err
	}
	r.Breakpoint2, r.CIEND, err = b.breakpoint(r.Start2, r.Orientation2, KeyCIEND)
	return err
}

// breakpoint undoes the shift of start to the leftmost position of the
// confidence interval. Reverse-strand breakend mates are one past the
// forward convention.
func (b *builder) breakpoint(start int64, o Orientation, key string) (int64, *ConfidenceInterval, error) {
	pos := start

	var ci *ConfidenceInterval
	if raw, ok := b.rec.Info.Get(key); ok {
		parsed, err := parseConfidenceInterval(raw)
		if err != nil {
			return 0, nil, b.formatError("invalid %s %q: %v", key, raw, err)
		}
		ci = &parsed
		pos -= parsed.Low
	}

	if o == Reverse && b.rec.SVType == SVTypeBreakend {
		pos++
	}
	return pos, ci, nil
}

// parseConfidenceInterval reads a "low,high" offset pair. Only the low bound
// moves the breakpoint, so a missing or non-integer high bound collapses the
// interval to low.
func parseConfidenceInterval(s string) (ConfidenceInterval, error) {
	lo, hi, _ := strings.Cut(s, ",")
	low, err := strconv.ParseInt(lo, 10, 64)
	if err != nil {
		return ConfidenceInterval{}, fmt.Errorf("low bound: %w", err)
	}
	high, err := strconv.ParseInt(hi, 10, 64)
	if err != nil {
		high = low
	}
	return ConfidenceInterval{Low: low, High: high}, nil
}

// stderrLogger writes warnings as single console lines to stderr.
func stderrLogger() *zap.Logger {
	return newWarnLogger(zapcore.Lock(os.Stderr))
}

func newWarnLogger(w zapcore.WriteSyncer) *zap.Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), w, zapcore.WarnLevel))
}
