package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/hbconv/internal/buildinfo"
	"github.com/cleared-dev/hbconv/internal/config"
	"github.com/cleared-dev/hbconv/internal/convert"
	"github.com/cleared-dev/hbconv/internal/homebank"
	"github.com/cleared-dev/hbconv/internal/importer"
	"github.com/cleared-dev/hbconv/internal/logger"
)

// Process exit codes.
const (
	ExitOK     = 0
	ExitUsage  = 1 // bad flags, config or environment
	ExitFailed = 2 // at least one file was not converted
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by the root command to an exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return ExitUsage
}

func usageError(err error) error { return &ExitError{Code: ExitUsage, Err: err} }

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
}

type convertFlags struct {
	input  string
	format string
	inDir  string
	outDir string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var g globalFlags
	var f convertFlags

	rootCmd := &cobra.Command{
		Use:   "hbconv",
		Short: "Convert bank exports to HomeBank QIF and CSV",
		Long: "hbconv converts Boursorama QIF, ING-DiBa CSV and Linxo CSV exports into\n" +
			"files HomeBank can import. With no --input, every export in the input\n" +
			"directory is converted.",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, err := load(cmd, g, f)
			if err != nil {
				return err
			}
			return runConvert(ctx, cmd, cfg, f)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", config.FileName, "config file")
	pf.StringVar(&g.envFile, "env-file", ".env", "dotenv file with HBCONV_* overrides")
	pf.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&g.logFormat, "log-format", "", "log format (console, json)")

	fl := rootCmd.Flags()
	fl.StringVarP(&f.input, "input", "i", "", "convert a single file")
	fl.StringVarP(&f.format, "type", "t", "", "force the input format instead of detecting it from the file name")
	fl.StringVar(&f.inDir, "in-dir", "", "directory scanned in batch mode")
	fl.StringVar(&f.outDir, "out-dir", "", "directory receiving the converted files")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newFormatsCommand(&g))
	rootCmd.AddCommand(newRunsCommand(&g))

	return rootCmd
}

// load resolves the configuration from file, environment and flags, then
// returns a context carrying the logger.
func load(cmd *cobra.Command, g globalFlags, f convertFlags) (context.Context, *config.Config, error) {
	cfg, err := loadConfig(g.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, nil, usageError(err)
	}
	if err := config.LoadEnv(g.envFile, cfg); err != nil {
		return nil, nil, usageError(err)
	}

	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	if f.inDir != "" {
		cfg.InputDir = f.inDir
	}
	if f.outDir != "" {
		cfg.OutputDir = f.outDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, usageError(fmt.Errorf("invalid configuration: %w", err))
	}

	log, err := logger.Build(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, usageError(err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logger.WithContext(ctx, log), cfg, nil
}

// loadConfig reads path. A missing file is only an error when the path was
// given explicitly.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return config.Default(), nil
	}
	return cfg, err
}

// newDetector merges the configured patterns over the built-in ones.
func newDetector(cfg *config.Config, registry *importer.Registry) (*importer.Detector, error) {
	patterns := importer.DefaultPatterns()
	for format, pattern := range cfg.Formats {
		if registry.Get(format) == nil {
			return nil, fmt.Errorf("formats.%s: unknown format", format)
		}
		patterns[format] = pattern
	}
	return importer.NewDetector(patterns)
}

func runConvert(ctx context.Context, cmd *cobra.Command, cfg *config.Config, f convertFlags) error {
	log := logger.FromContext(ctx)

	registry := importer.DefaultRegistry(log)
	detector, err := newDetector(cfg, registry)
	if err != nil {
		return usageError(err)
	}
	if f.format != "" {
		if f.input == "" {
			return usageError(errors.New("--type requires --input"))
		}
		if registry.Get(f.format) == nil {
			return usageError(fmt.Errorf("unknown type %q, see \"hbconv formats\"", f.format))
		}
	}

	opts := convert.Options{
		OutputDir:    cfg.OutputDir,
		OutputSuffix: cfg.OutputSuffix,
		QIFHeader:    cfg.QIFHeader,
		ArchiveDir:   cfg.ArchiveDir,
		RunLog:       cfg.RunLog,
	}
	// A single file is written next to itself unless --out-dir says otherwise.
	if f.input != "" && f.outDir == "" {
		opts.OutputDir = ""
	}
	conv := convert.New(registry, detector, homebank.NewWriter(log, cfg.DateFormat), log, opts)

	var sum convert.Summary
	if f.input != "" {
		sum.Results = append(sum.Results, conv.ConvertFile(f.input, f.format))
	} else {
		log.Info().Str("in", cfg.InputDir).Str("out", cfg.OutputDir).Msg("batch conversion")
		sum, err = conv.ConvertDir(cfg.InputDir)
		if err != nil {
			return &ExitError{Code: ExitFailed, Err: err}
		}
	}

	out := cmd.OutOrStdout()
	for _, r := range sum.Results {
		fmt.Fprintf(out, "%-9s %s (%s): %d records, %d skipped\n", r.Status(), r.Input, r.Format, r.Records, r.Skipped)
	}

	if n := sum.Failed(); n > 0 {
		return &ExitError{Code: ExitFailed, Err: fmt.Errorf("%d of %d files not fully converted: %w", n, len(sum.Results), sum.Err())}
	}
	return nil
}
