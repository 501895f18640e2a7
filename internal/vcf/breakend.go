package vcf

import (
	"strconv"
	"strings"

	"github.com/inodb/vibe-bedpe/internal/bedpe"
)

// Suffixes appended to the record name for the two lines of a breakend pair.
const (
	MateSuffix1 = "_1"
	MateSuffix2 = "_2"
)

// refPlaceholder stands in for the reference base, which is not known here.
const refPlaceholder = "N"

// BreakendAlt returns the bracket ALT notation for a breakend at a mate with
// orientation o joined to a partner at chrom:pos with orientation mate.
//
//	o=+ mate=-  N[chrom:pos[
//	o=+ mate=+  N]chrom:pos]
//	o=- mate=+  ]chrom:pos]N
//	o=- mate=-  [chrom:pos[N
func BreakendAlt(ref string, o, mate bedpe.Orientation, chrom string, pos int64) string {
	bracket := "]"
	if mate == bedpe.Reverse {
		bracket = "["
	}
	partner := bracket + chrom + ":" + strconv.FormatInt(pos, 10) + bracket

	if o == bedpe.Reverse {
		return partner + ref
	}
	return ref + partner
}

// FromRecord converts a normalized record into VCF lines. Breakend records
// yield one line per mate; other types yield a single symbolic-allele line
// spanning Breakpoint1 to Breakpoint2.
func FromRecord(rec *bedpe.Record) []*Variant {
	if rec.IsBreakend() {
		return breakendPair(rec)
	}
	return []*Variant{symbolic(rec)}
}

func breakendPair(rec *bedpe.Record) []*Variant {
	id1 := rec.Name + MateSuffix1
	id2 := rec.Name + MateSuffix2

	v1 := base(rec, rec.Chrom1, rec.Breakpoint1, id1)
	v1.Alt = BreakendAlt(refPlaceholder, rec.Orientation1, rec.Orientation2, rec.Chrom2, rec.Breakpoint2)
	v1.SetInfo("MATEID", id2)

	v2 := base(rec, rec.Chrom2, rec.Breakpoint2, id2)
	v2.Alt = BreakendAlt(refPlaceholder, rec.Orientation2, rec.Orientation1, rec.Chrom1, rec.Breakpoint1)
	v2.SetInfo("MATEID", id1)

	// The second mate's own interval is CIEND; it becomes CIPOS on its line.
	swapInfo(v2, bedpe.KeyCIPOS, bedpe.KeyCIEND)

	return []*Variant{v1, v2}
}

func symbolic(rec *bedpe.Record) *Variant {
	v := base(rec, rec.Chrom1, rec.Breakpoint1, rec.Name)
	v.Alt = "<" + rec.SVType + ">"
	if rec.Chrom2 != rec.Chrom1 {
		v.SetInfo("CHR2", rec.Chrom2)
	}
	v.SetInfo("END", strconv.FormatInt(rec.Breakpoint2, 10))
	return v
}

// base fills the columns shared by every line of a record. SVTYPE is always
// the first INFO entry; the remaining annotation keys keep their order.
func base(rec *bedpe.Record, chrom string, pos int64, id string) *Variant {
	v := &Variant{
		Chrom:  chrom,
		Pos:    pos,
		ID:     id,
		Ref:    refPlaceholder,
		Qual:   formatQual(rec.Score),
		Filter: rec.Filter,
		Info:   []InfoField{{Key: bedpe.KeySVType, Value: rec.SVType}},
	}

	for _, key := range rec.Info.Keys() {
		if key == bedpe.KeySVType {
			continue
		}
		value, _ := rec.Info.Get(key)
		v.Info = append(v.Info, InfoField{Key: key, Value: value})
	}
	return v
}

func swapInfo(v *Variant, a, b string) {
	va, okA := v.GetInfo(a)
	vb, okB := v.GetInfo(b)
	if !okA && !okB {
		return
	}

	kept := v.Info[:0]
	for _, f := range v.Info {
		if f.Key != a && f.Key != b {
			kept = append(kept, f)
		}
	}
	v.Info = kept
	if okB {
		v.Info = append(v.Info, InfoField{Key: a, Value: vb})
	}
	if okA {
		v.Info = append(v.Info, InfoField{Key: b, Value: va})
	}
}

func formatQual(s bedpe.Score) string {
	if f, ok := s.Float(); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	if raw := strings.TrimSpace(s.String()); raw != "" {
		return raw
	}
	return MissingValue
}
