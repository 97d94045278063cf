package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sensiblebit/certcheck"
	"github.com/sensiblebit/certcheck/internal"
	"github.com/sensiblebit/certcheck/internal/inventory"
)

var (
	checkTrustDir    string
	checkGrace       string
	checkMatch       string
	checkMozilla     bool
	checkFormats     string
	checkLenient     bool
	checkWorkers     int
	checkOutput      string
	checkDBPath      string
	checkMetricsFile string
)

var checkCmd = &cobra.Command{
	Use:   "check [dir]",
	Short: "Classify the certificates in a directory",
	Long: `List the entries of a directory that are not certificates, the certificates
that are expired or expire within the grace window, and which certificates are
present in the system trust store directory.

Without an argument the directory is asked for on the terminal.`,
	Example: `  certcheck check ./certs
  certcheck check ./certs --grace 30d
  certcheck check ./certs --match fingerprint --mozilla
  certcheck check ./certs --formats any --output json`,
	ValidArgsFunction: singleDirCompletion,
	RunE:              runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkTrustDir, "trust-dir", inventory.DefaultTrustDir, "Trust store directory")
	checkCmd.Flags().StringVar(&checkGrace, "grace", "24h", "Report certificates expiring within this window as expired (e.g. 24h, 30d)")
	checkCmd.Flags().StringVar(&checkMatch, "match", string(inventory.MatchBasename), "Trust store matching: basename or fingerprint")
	checkCmd.Flags().BoolVar(&checkMozilla, "mozilla", false, "Also trust the embedded Mozilla root program (fingerprint matching only)")
	checkCmd.Flags().StringVar(&checkFormats, "formats", string(inventory.FormatsPEM), "Certificate encodings to accept: pem or any")
	checkCmd.Flags().BoolVar(&checkLenient, "lenient", false, "Accept certificates with non-fatal encoding errors")
	checkCmd.Flags().IntVar(&checkWorkers, "workers", 0, "Concurrent certificate parsers (default: number of CPUs)")
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "text", "Output format: text or json")
	checkCmd.Flags().StringVar(&checkDBPath, "db", "", "Append the run to this SQLite history file")
	checkCmd.Flags().StringVar(&checkMetricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")

	registerCompletion(checkCmd, completionInput{"trust-dir", directoryCompletion})
	registerCompletion(checkCmd, completionInput{"match", fixedCompletion("basename", "fingerprint")})
	registerCompletion(checkCmd, completionInput{"formats", fixedCompletion("pem", "any")})
	registerCompletion(checkCmd, completionInput{"output", fixedCompletion("text", "json")})
	registerCompletion(checkCmd, completionInput{"db", fileCompletion})
	registerCompletion(checkCmd, completionInput{"metrics-file", fileCompletion})
}

func runCheck(cmd *cobra.Command, args []string) error {
	target, err := internal.ResolveTarget(args, pathProvider(cmd))
	if err != nil {
		var ambiguous *certcheck.AmbiguousInputError
		if errors.As(err, &ambiguous) {
			_ = cmd.Usage()
		}
		return err
	}

	cfg, err := checkConfig(cmd)
	if err != nil {
		return err
	}
	passwords, err := loadPasswords(cfg.Passwords)
	if err != nil {
		return fmt.Errorf("loading passwords: %w", err)
	}
	// Validate has already accepted these.
	match, _ := inventory.ParseMatchMode(cfg.Match)
	formats, _ := inventory.ParseFormats(cfg.Formats)
	grace := cfg.GraceDuration()

	res, err := inventory.Classify(cmd.Context(), inventory.Input{
		TargetDir:    target,
		TrustDir:     cfg.TrustDir,
		Grace:        grace,
		Match:        match,
		MozillaRoots: cfg.MozillaRoots,
		Formats:      formats,
		Passwords:    passwords,
		Lenient:      cfg.Lenient,
		Workers:      cfg.Workers,
	})
	if err != nil {
		return err
	}

	if err := internal.WriteReport(cmd.OutOrStdout(), res, cfg.Output); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if checkDBPath != "" {
		if err := recordHistory(checkDBPath, res, grace, match); err != nil {
			return err
		}
	}
	if checkMetricsFile != "" {
		m := internal.NewMetrics()
		m.Update(res)
		if err := m.WriteTextfile(checkMetricsFile); err != nil {
			return err
		}
	}

	slog.Debug("check complete", "path", target, "summary", internal.Summary(res.Report))
	return nil
}

// checkConfig layers explicitly set flags over the config file (or the
// defaults when no file is given) and validates the result.
func checkConfig(cmd *cobra.Command) (*internal.Config, error) {
	cfg := internal.Defaults()
	if configPath != "" {
		var err error
		if cfg, err = internal.LoadConfig(configPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	override(flags, "trust-dir", &cfg.TrustDir, checkTrustDir)
	override(flags, "grace", &cfg.Grace, checkGrace)
	override(flags, "match", &cfg.Match, checkMatch)
	override(flags, "mozilla", &cfg.MozillaRoots, checkMozilla)
	override(flags, "formats", &cfg.Formats, checkFormats)
	override(flags, "lenient", &cfg.Lenient, checkLenient)
	override(flags, "workers", &cfg.Workers, checkWorkers)
	override(flags, "output", &cfg.Output, checkOutput)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if cfg.MozillaRoots && cfg.Match != string(inventory.MatchFingerprint) {
		slog.Warn("--mozilla has no effect with basename matching")
	}
	return cfg, nil
}

// override sets *dst to v when the named flag was given on the command line.
func override[T any](flags *pflag.FlagSet, name string, dst *T, v T) {
	if flags.Changed(name) {
		*dst = v
	}
}

// pathProvider prompts on the terminal when stdin is one. Scripts that pipe
// stdin get no provider and must pass the directory as an argument.
func pathProvider(cmd *cobra.Command) internal.PathProvider {
	in := cmd.InOrStdin()
	f, ok := in.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return nil
	}
	return internal.PromptProvider{In: in, Out: cmd.ErrOrStderr()}
}

func recordHistory(path string, res *inventory.Result, grace time.Duration, match inventory.MatchMode) error {
	h, err := internal.OpenHistory(path)
	if err != nil {
		return err
	}
	defer h.Close()
	if _, err := h.RecordRun(res, grace, match); err != nil {
		return fmt.Errorf("recording run in %s: %w", path, err)
	}
	return nil
}
