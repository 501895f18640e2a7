package bedpe

import (
	"errors"
	"io"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestNormalizer(t *testing.T) (*Normalizer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	n := NewNormalizer()
	n.SetLogger(zap.New(core))
	return n, logs
}

// row builds a 14-column BEDPE row with both mate annotation entries set to info.
func row(strand1, strand2, svtype, info string) []string {
	return []string{
		"1", "1000", "1010",
		"2", "2000", "2010",
		"sv1", "100", strand1, strand2,
		svtype, "PASS",
		info, info,
	}
}

func TestNormalize_NoConfidenceInterval(t *testing.T) {
	n, logs := newTestNormalizer(t)

	rec, err := n.Normalize(row("+", "-", "DEL", "SVTYPE=DEL;AF=0.25"))
	require.NoError(t, err)

	assert.Equal(t, int64(1000), rec.Breakpoint1)
	assert.Equal(t, int64(2000), rec.Breakpoint2)
	assert.Nil(t, rec.CIPOS)
	assert.Nil(t, rec.CIEND)
	assert.Equal(t, "DEL", rec.SVType)
	assert.Equal(t, "0.25", rec.AF)
	assert.Equal(t, 0, logs.Len())
}

func TestNormalize_FixedFields(t *testing.T) {
	n, _ := newTestNormalizer(t)

	rec, err := n.Normalize(row("+", "-", "DEL", "SVTYPE=DEL;AF=0.25"))
	require.NoError(t, err)

	assert.Equal(t, "1", rec.Chrom1)
	assert.Equal(t, int64(1000), rec.Start1)
	assert.Equal(t, int64(1010), rec.End1)
	assert.Equal(t, "2", rec.Chrom2)
	assert.Equal(t, int64(2000), rec.Start2)
	assert.Equal(t, int64(2010), rec.End2)
	assert.Equal(t, "sv1", rec.Name)
	assert.Equal(t, Forward, rec.Orientation1)
	assert.Equal(t, Reverse, rec.Orientation2)
	assert.Equal(t, "DEL", rec.DeclaredType)
	assert.Equal(t, "PASS", rec.Filter)
	assert.Equal(t, MalformedNone, rec.Malformed)
	assert.Equal(t, []string{"SVTYPE=DEL;AF=0.25"}, rec.Annotation)
}

func TestNormalize_CIPOSForward(t *testing.T) {
	n, _ := newTestNormalizer(t)

	rec, err := n.Normalize(row("+", "+", "BND", "SVTYPE=BND;AF=0.5;CIPOS=-5,5"))
	require.NoError(t, err)

	assert.Equal(t, rec.Start1+5, rec.Breakpoint1)
	require.NotNil(t, rec.CIPOS)
	assert.Equal(t, ConfidenceInterval{Low: -5, High: 5}, *rec.CIPOS)
	assert.Nil(t, rec.CIEND)
	assert.Equal(t, rec.Start2, rec.Breakpoint2)
}

func TestNormalize_CIPOSReverseBreakend(t *testing.T) {
	n, _ := newTestNormalizer(t)

	rec, err := n.Normalize(row("-", "+", "BND", "SVTYPE=BND;AF=0.5;CIPOS=-5,5"))
	require.NoError(t, err)

	assert.Equal(t, rec.Start1+5+1, rec.Breakpoint1)
	assert.Equal(t, rec.Start2, rec.Breakpoint2)
}

func TestNormalize_CIENDReverseBreakend(t *testing.T) {
	n, _ := newTestNormalizer(t)

	rec, err := n.Normalize(row("+", "-", "BND", "SVTYPE=BND;AF=0.5;CIEND=-12,3"))
	require.NoError(t, err)

	assert.Equal(t, rec.Start1, rec.Breakpoint1)
	assert.Equal(t, rec.Start2+12+1, rec.Breakpoint2)
	require.NotNil(t, rec.CIEND)
	assert.Equal(t, ConfidenceInterval{Low: -12, High: 3}, *rec.CIEND)
}

func TestNormalize_ReverseBreakendWithoutInterval(t *testing.T) {
	n, _ := newTestNormalizer(t)

	rec, err := n.Normalize(row("-", "-", "BND", "SVTYPE=BND;AF=0.5"))
	require.NoError(t, err)

	assert.Equal(t, rec.Start1+1, rec.Breakpoint1)
	assert.Equal(t, rec.Start2+1, rec.Breakpoint2)
}

func TestNormalize_ReverseNonBreakendNoCorrection(t *testing.T) {
	n, _ := newTestNormalizer(t)

	rec, err := n.Normalize(row("-", "-", "INV", "SVTYPE=INV;AF=0.5;CIPOS=-5,5;CIEND=-7,7"))
	require.NoError(t, err)

	assert.Equal(t, rec.Start1+5, rec.Breakpoint1)
	assert.Equal(t, rec.Start2+7, rec.Breakpoint2)
}

func TestNormalize_Score(t *testing.T) {
	n, _ := newTestNormalizer(t)

	fields := row("+", "-", "DEL", "SVTYPE=DEL;AF=1")
	rec, err := n.Normalize(fields)
	require.NoError(t, err)
	v, ok := rec.Score.Float()
	assert.True(t, ok)
	assert.Equal(t, 100.0, v)

	fields[7] = "."
	rec, err = n.Normalize(fields)
	require.NoError(t, err)
	assert.False(t, rec.Score.IsNumeric())
	assert.Equal(t, ".", rec.Score.String())
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		raw     string
		numeric bool
		value   float64
	}{
		{"100", true, 100},
		{"007", true, 7},
		{"0", true, 0},
		{".", false, 0},
		{"", false, 0},
		{"-5", false, 0},
		{"1.5", false, 0},
		{"1e3", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			s := ParseScore(tt.raw)
			v, ok := s.Float()
			assert.Equal(t, tt.numeric, ok)
			assert.Equal(t, tt.value, v)
			assert.Equal(t, tt.raw, s.String())
		})
	}
}

func TestNormalize_MissingFirst(t *testing.T) {
	n, _ := newTestNormalizer(t)

	fields := row("+", "-", "BND", "")
	fields[12] = MissingPlaceholder
	fields[13] = "SVTYPE=BND;AF=0.1;MATEID=sv1_2"

	rec, err := n.Normalize(fields)
	require.NoError(t, err)

	assert.Equal(t, MalformedMissingFirst, rec.Malformed)
	assert.Equal(t, []string{"SVTYPE=BND;AF=0.1;MATEID=sv1_2"}, rec.Annotation)
	assert.Equal(t, "0.1", rec.AF)
}

func TestNormalize_MissingSecond(t *testing.T) {
	n, _ := newTestNormalizer(t)

	fields := row("+", "-", "BND", "")
	fields[12] = "SVTYPE=BND;AF=0.3"
	fields[13] = MissingPlaceholder

	rec, err := n.Normalize(fields)
	require.NoError(t, err)

	assert.Equal(t, MalformedMissingSecond, rec.Malformed)
	assert.Equal(t, []string{"SVTYPE=BND;AF=0.3"}, rec.Annotation)
}

func TestNormalize_BothMissing(t *testing.T) {
	n, _ := newTestNormalizer(t)

	fields := row("+", "-", "BND", MissingPlaceholder)

	rec, err := n.Normalize(fields)
	assert.Nil(t, rec)

	var keyErr *MissingAnnotationKeyError
	require.True(t, errors.As(err, &keyErr))
	assert.Equal(t, KeySVType, keyErr.Key)
	assert.Equal(t, "sv1", keyErr.Name)
}

func TestNormalize_ExtraAnnotationColumnsKept(t *testing.T) {
	n, _ := newTestNormalizer(t)

	fields := append(row("+", "-", "DEL", "SVTYPE=DEL;AF=0.2"), "GT:SU", "0/1:7")

	rec, err := n.Normalize(fields)
	require.NoError(t, err)
	assert.Equal(t, []string{"SVTYPE=DEL;AF=0.2", "GT:SU", "0/1:7"}, rec.Annotation)
}

func TestNormalize_SingleAnnotationColumn(t *testing.T) {
	n, _ := newTestNormalizer(t)

	fields := row("+", "-", "DEL", "SVTYPE=DEL;AF=0.2")[:MinFields]

	rec, err := n.Normalize(fields)
	require.NoError(t, err)
	assert.Equal(t, []string{"SVTYPE=DEL;AF=0.2"}, rec.Annotation)
	assert.Equal(t, MalformedNone, rec.Malformed)
}

func TestNormalize_TypeMismatchWarns(t *testing.T) {
	n, logs := newTestNormalizer(t)

	rec, err := n.Normalize(row("+", "-", "DEL", "SVTYPE=DUP;AF=0.5"))
	require.NoError(t, err)

	assert.Equal(t, "DUP", rec.SVType)
	assert.Equal(t, "DEL", rec.DeclaredType)

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "DEL", ctx["declared"])
	assert.Equal(t, "DUP", ctx["svtype"])
	assert.Equal(t, "sv1", ctx["name"])
}

func TestNormalize_TooFewFields(t *testing.T) {
	n, _ := newTestNormalizer(t)

	fields := row("+", "-", "DEL", "SVTYPE=DEL;AF=0.5")[:12]

	rec, err := n.Normalize(fields)
	assert.Nil(t, rec)

	var fmtErr *FormatError
	require.True(t, errors.As(err, &fmtErr))
	assert.Equal(t, "sv1", fmtErr.Name)
}

func TestNormalize_TooFewFieldsWithoutName(t *testing.T) {
	n, _ := newTestNormalizer(t)

	rec, err := n.Normalize([]string{"1", "100", "200"})
	assert.Nil(t, rec)

	var fmtErr *FormatError
	require.True(t, errors.As(err, &fmtErr))
	assert.Equal(t, "unknown", fmtErr.Name)
}

func TestNormalize_NonIntegerCoordinate(t *testing.T) {
	n, _ := newTestNormalizer(t)

	for _, col := range []int{1, 2, 4, 5} {
		fields := row("+", "-", "DEL", "SVTYPE=DEL;AF=0.5")
		fields[col] = "12a"

		rec, err := n.Normalize(fields)
		assert.Nil(t, rec)

		var fmtErr *FormatError
		require.True(t, errors.As(err, &fmtErr), "column %d", col)
		assert.Equal(t, "sv1", fmtErr.Name)
	}
}

func TestNormalize_MissingAF(t *testing.T) {
	n, _ := newTestNormalizer(t)

	// MAF is a different key and must not satisfy AF.
	rec, err := n.Normalize(row("+", "-", "DEL", "SVTYPE=DEL;MAF=0.5"))
	assert.Nil(t, rec)

	var keyErr *MissingAnnotationKeyError
	require.True(t, errors.As(err, &keyErr))
	assert.Equal(t, KeyAF, keyErr.Key)
}

func TestNormalize_ConfidenceIntervalLowOnly(t *testing.T) {
	n, _ := newTestNormalizer(t)

	for _, info := range []string{
		"SVTYPE=DEL;AF=0.5;CIPOS=-5",
		"SVTYPE=DEL;AF=0.5;CIPOS=-5,x",
		"SVTYPE=DEL;AF=0.5;CIPOS=-5,",
	} {
		rec, err := n.Normalize(row("+", "-", "DEL", info))
		require.NoError(t, err, info)

		assert.Equal(t, rec.Start1+5, rec.Breakpoint1, info)
		require.NotNil(t, rec.CIPOS, info)
		assert.Equal(t, ConfidenceInterval{Low: -5, High: -5}, *rec.CIPOS, info)
	}

	rec, err := n.Normalize(row("+", "-", "BND", "SVTYPE=BND;AF=0.5;CIEND=-12"))
	require.NoError(t, err)
	assert.Equal(t, rec.Start2+12+1, rec.Breakpoint2)
}

func TestNormalize_InvalidConfidenceInterval(t *testing.T) {
	n, _ := newTestNormalizer(t)

	for _, info := range []string{
		"SVTYPE=DEL;AF=0.5;CIPOS=a,5",
		"SVTYPE=DEL;AF=0.5;CIPOS=",
		"SVTYPE=DEL;AF=0.5;CIEND=,5",
	} {
		rec, err := n.Normalize(row("+", "-", "DEL", info))
		assert.Nil(t, rec, info)

		var fmtErr *FormatError
		require.True(t, errors.As(err, &fmtErr), info)
		assert.Equal(t, "sv1", fmtErr.Name)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	n, _ := newTestNormalizer(t)

	fields := row("-", "+", "BND", "")
	fields[12] = MissingPlaceholder
	fields[13] = "SVTYPE=BND;AF=0.5;CIPOS=-3,9;CIEND=-2,2"
	orig := slices.Clone(fields)

	a, err := n.Normalize(fields)
	require.NoError(t, err)
	b, err := n.Normalize(fields)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotSame(t, a, b)
	assert.Equal(t, orig, fields, "input fields must not be modified")
}

func TestNewRecord_DefaultNormalizer(t *testing.T) {
	rec, err := NewRecord(row("+", "-", "DEL", "SVTYPE=DEL;AF=0.5"))
	require.NoError(t, err)
	assert.Equal(t, "sv1", rec.Name)
	assert.False(t, rec.IsBreakend())
}

func TestMalformed_String(t *testing.T) {
	assert.Equal(t, "none", MalformedNone.String())
	assert.Equal(t, "missing_first", MalformedMissingFirst.String())
	assert.Equal(t, "missing_second", MalformedMissingSecond.String())
}

func TestParseMalformed(t *testing.T) {
	for _, m := range []Malformed{MalformedNone, MalformedMissingFirst, MalformedMissingSecond} {
		got, err := ParseMalformed(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	_, err := ParseMalformed("both")
	assert.Error(t, err)
}

func TestNewNormalizer_WarnsOnStderr(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stderr := os.Stderr
	os.Stderr = w
	n := NewNormalizer()
	os.Stderr = stderr

	_, err = n.Normalize(row("+", "-", "DEL", "SVTYPE=DUP;AF=0.5"))
	require.NoError(t, err)
	_, err = n.Normalize(row("+", "-", "DEL", "SVTYPE=DEL;AF=0.5"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	out, err := io.ReadAll(r)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "WARN")
	assert.Contains(t, lines[0], `"declared": "DEL"`)
	assert.Contains(t, lines[0], `"svtype": "DUP"`)
	assert.Contains(t, lines[0], `"name": "sv1"`)
}
