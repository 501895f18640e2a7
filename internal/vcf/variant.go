// Package vcf builds VCF records from normalized BEDPE mate pairs.
package vcf

import (
	"strconv"
	"strings"
)

// MissingValue is the VCF placeholder for an absent column value.
const MissingValue = "."

// InfoField is one INFO entry. An empty Value is written as a flag.
type InfoField struct {
	Key   string
	Value string
}

// Variant represents a single VCF data line.
type Variant struct {
	Chrom  string      // Chromosome name (e.g., "12", "chr12")
	Pos    int64       // 1-based position
	ID     string      // Variant identifier
	Ref    string      // Reference allele
	Alt    string      // Alternate allele, symbolic or breakend notation
	Qual   string      // Quality, "." when missing
	Filter string      // Filter status (PASS or filter name)
	Info   []InfoField // INFO entries in output order
}

// GetInfo returns the value of an INFO key and whether it is present.
func (v *Variant) GetInfo(key string) (string, bool) {
	for _, f := range v.Info {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// SetInfo replaces the value of key, appending it if absent.
func (v *Variant) SetInfo(key, value string) {
	for i := range v.Info {
		if v.Info[i].Key == key {
			v.Info[i].Value = value
			return
		}
	}
	v.Info = append(v.Info, InfoField{Key: key, Value: value})
}

// FormatInfo renders the INFO column.
func (v *Variant) FormatInfo() string {
	if len(v.Info) == 0 {
		return MissingValue
	}

	var b strings.Builder
	for i, f := range v.Info {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(f.Key)
		if f.Value != "" {
			b.WriteByte('=')
			b.WriteString(f.Value)
		}
	}
	return b.String()
}

// Line renders the eight fixed VCF columns without a trailing newline.
func (v *Variant) Line() string {
	var b strings.Builder
	b.Grow(128)

	b.WriteString(v.Chrom)
	b.WriteByte('\t')
	b.WriteString(strconv.FormatInt(v.Pos, 10))
	b.WriteByte('\t')
	b.WriteString(orMissing(v.ID))
	b.WriteByte('\t')
	b.WriteString(orMissing(v.Ref))
	b.WriteByte('\t')
	b.WriteString(orMissing(v.Alt))
	b.WriteByte('\t')
	b.WriteString(orMissing(v.Qual))
	b.WriteByte('\t')
	b.WriteString(orMissing(v.Filter))
	b.WriteByte('\t')
	b.WriteString(v.FormatInfo())
	return b.String()
}

func orMissing(s string) string {
	if s == "" {
		return MissingValue
	}
	return s
}
