package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-bedpe/internal/bedpe"
	"github.com/inodb/vibe-bedpe/internal/duckdb"
	"github.com/inodb/vibe-bedpe/internal/output"
)

// storeBatchSize is the number of records appended to DuckDB at once.
const storeBatchSize = 10000

// Output formats
const (
	formatVCF = "vcf"
	formatTab = "tab"
)

type convertOptions struct {
	input   string
	output  string
	format  string
	workers int
	strict  bool
	dbPath  string
}

// conversionStats summarizes one run.
type conversionStats struct {
	written int
	skipped int
}

func newConvertCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "convert [options] <input.bedpe>",
		Short: "Convert BEDPE records to breakend VCF",
		Long: `Convert BEDPE structural variants to VCF. Breakend (BND) records become a
pair of mate lines with bracket ALT notation; other types become a single
symbolic-allele line with END set to the second breakpoint.`,
		Example: `  vibe-bedpe convert calls.bedpe
  vibe-bedpe convert -o calls.vcf calls.bedpe.gz
  vibe-bedpe convert --db calls.duckdb --strict calls.bedpe
  cat calls.bedpe | vibe-bedpe convert -`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvertCmd(cmd, args[0], outputFile, formatVCF)
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newNormalizeCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "normalize [options] <input.bedpe>",
		Short: "Write normalized BEDPE records as a tab-delimited table",
		Long: `Write one tab-delimited line per BEDPE record with the derived SVTYPE, AF,
confidence intervals, malformed state, and restored breakpoints.`,
		Example: `  vibe-bedpe normalize calls.bedpe
  vibe-bedpe normalize -o calls.tsv calls.bedpe`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvertCmd(cmd, args[0], outputFile, formatTab)
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func runConvertCmd(cmd *cobra.Command, input, outputFile, format string) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	opts := convertOptions{
		input:   input,
		output:  outputFile,
		format:  format,
		workers: viper.GetInt("workers"),
		strict:  viper.GetBool("strict"),
		dbPath:  viper.GetString("db"),
	}

	out := cmd.OutOrStdout()
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	stats, err := runConvert(opts, out, logger)
	if err != nil {
		return err
	}

	logger.Info("conversion complete",
		zap.String("input", opts.input),
		zap.Int("records", stats.written),
		zap.Int("skipped", stats.skipped))
	return nil
}

// runConvert streams every row of opts.input through the normalizer into
// the chosen writer and, when configured, the DuckDB store.
func runConvert(opts convertOptions, out io.Writer, logger *zap.Logger) (conversionStats, error) {
	var stats conversionStats

	reader, err := bedpe.NewReader(opts.input)
	if err != nil {
		return stats, err
	}
	defer reader.Close()

	norm := bedpe.NewNormalizer()
	norm.SetLogger(logger)

	var writer output.RecordWriter
	switch opts.format {
	case formatVCF:
		writer = output.NewVCFWriter(out, reader.Header())
	case formatTab:
		writer = output.NewTabWriter(out)
	default:
		return stats, fmt.Errorf("unknown output format %q", opts.format)
	}

	sink, err := openSink(opts, logger)
	if err != nil {
		return stats, err
	}
	if sink != nil {
		defer sink.close()
	}

	if err := writer.WriteHeader(); err != nil {
		return stats, fmt.Errorf("writing header: %w", err)
	}

	err = norm.NormalizeAll(reader, opts.workers, func(res bedpe.WorkResult) error {
		if res.Err != nil {
			if opts.strict {
				return res.Err
			}
			logger.Warn("skipping row", zap.Int("line", res.Line), zap.Error(res.Err))
			stats.skipped++
			return nil
		}

		if err := writer.Write(res.Record); err != nil {
			return fmt.Errorf("write record %s: %w", res.Record.Name, err)
		}
		if sink != nil {
			if err := sink.add(res.Record); err != nil {
				return err
			}
		}
		stats.written++
		return nil
	})
	if err != nil {
		return stats, err
	}

	if err := writer.Flush(); err != nil {
		return stats, fmt.Errorf("flushing output: %w", err)
	}
	if sink != nil {
		if err := sink.finish(stats.written); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// recordSink batches records into a DuckDB store.
type recordSink struct {
	store  *duckdb.Store
	source *duckdb.FileFingerprint
	batch  []*bedpe.Record
}

// openSink opens the store named by opts.dbPath. It returns nil when no store
// is configured or when the same input file was already imported.
func openSink(opts convertOptions, logger *zap.Logger) (*recordSink, error) {
	if opts.dbPath == "" {
		return nil, nil
	}

	store, err := duckdb.Open(opts.dbPath)
	if err != nil {
		return nil, err
	}
	sink := &recordSink{store: store}

	if opts.input != "-" {
		fp, err := duckdb.StatFile(opts.input)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("stat input: %w", err)
		}
		imported, err := store.HasSource(fp)
		if err != nil {
			store.Close()
			return nil, err
		}
		if imported {
			logger.Info("input already stored, skipping database write",
				zap.String("input", opts.input), zap.String("db", opts.dbPath))
			store.Close()
			return nil, nil
		}
		sink.source = &fp
	}

	return sink, nil
}

func (s *recordSink) add(rec *bedpe.Record) error {
	s.batch = append(s.batch, rec)
	if len(s.batch) < storeBatchSize {
		return nil
	}
	return s.flush()
}

func (s *recordSink) flush() error {
	if err := s.store.WriteRecords(s.batch); err != nil {
		return fmt.Errorf("store records: %w", err)
	}
	s.batch = s.batch[:0]
	return nil
}

func (s *recordSink) finish(records int) error {
	if err := s.flush(); err != nil {
		return err
	}
	if s.source == nil {
		return nil
	}
	return s.store.RecordSource(*s.source, records)
}

func (s *recordSink) close() error {
	return s.store.Close()
}

// usageArgs marks argument-count errors as usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
