package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/inodb/vibe-bedpe/internal/bedpe"
	"github.com/inodb/vibe-bedpe/internal/vcf"
)

// infoDefinitions are the INFO header lines for keys this writer produces.
var infoDefinitions = []struct{ id, line string }{
	{"SVTYPE", `##INFO=<ID=SVTYPE,Number=1,Type=String,Description="Type of structural variant">`},
	{"END", `##INFO=<ID=END,Number=1,Type=Integer,Description="End position of the variant described in this record">`},
	{"CHR2", `##INFO=<ID=CHR2,Number=1,Type=String,Description="Chromosome of the second breakpoint">`},
	{"MATEID", `##INFO=<ID=MATEID,Number=.,Type=String,Description="ID of mate breakends">`},
	{"CIPOS", `##INFO=<ID=CIPOS,Number=2,Type=Integer,Description="Confidence interval around POS for imprecise variants">`},
	{"CIEND", `##INFO=<ID=CIEND,Number=2,Type=Integer,Description="Confidence interval around END for imprecise variants">`},
	{"AF", `##INFO=<ID=AF,Number=A,Type=Float,Description="Allele Frequency, for each ALT allele, in the same order as listed">`},
}

var altDefinitions = []string{
	`##ALT=<ID=DEL,Description="Deletion">`,
	`##ALT=<ID=DUP,Description="Duplication">`,
	`##ALT=<ID=INV,Description="Inversion">`,
	`##ALT=<ID=INS,Description="Insertion">`,
	`##ALT=<ID=CNV,Description="Copy number variable region">`,
}

const vcfColumnHeader = "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO"

// VCFWriter writes records as VCF lines: breakend pairs for BND records and
// symbolic alleles for everything else.
type VCFWriter struct {
	w           *bufio.Writer
	headerLines []string // '##' meta lines carried over from the input
}

// NewVCFWriter creates a new VCF output writer. Input '##' meta lines are
// copied into the output header; other lines are ignored.
func NewVCFWriter(w io.Writer, inputHeader []string) *VCFWriter {
	var meta []string
	for _, line := range inputHeader {
		if strings.HasPrefix(line, "##") && !strings.HasPrefix(line, "##fileformat=") {
			meta = append(meta, line)
		}
	}
	return &VCFWriter{
		w:           bufio.NewWriter(w),
		headerLines: meta,
	}
}

// WriteHeader writes the fileformat line, carried-over meta lines, INFO and
// ALT definitions, and the column header.
func (vw *VCFWriter) WriteHeader() error {
	lines := []string{"##fileformat=VCFv4.2", "##source=vibe-bedpe"}
	lines = append(lines, vw.headerLines...)

	for _, def := range infoDefinitions {
		if !vw.defines("##INFO=<ID=" + def.id + ",") {
			lines = append(lines, def.line)
		}
	}
	for _, def := range altDefinitions {
		id := def[:strings.IndexByte(def, ',')+1]
		if !vw.defines(id) {
			lines = append(lines, def)
		}
	}
	lines = append(lines, vcfColumnHeader)

	for _, line := range lines {
		if _, err := vw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

func (vw *VCFWriter) defines(prefix string) bool {
	for _, line := range vw.headerLines {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// Write writes the VCF line or lines for one record.
func (vw *VCFWriter) Write(rec *bedpe.Record) error {
	for _, v := range vcf.FromRecord(rec) {
		if _, err := vw.w.WriteString(v.Line() + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (vw *VCFWriter) Flush() error {
	return vw.w.Flush()
}
