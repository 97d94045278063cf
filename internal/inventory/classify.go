package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Input holds everything Classify depends on. Given the same Input and
// unchanged directories, Classify returns the same Report.
type Input struct {
	TargetDir string
	TrustDir  string    // empty selects DefaultTrustDir
	Now       time.Time // zero selects time.Now

	// Grace is used as given: zero reports only certificates already past
	// NotAfter. Pass DefaultGrace for the 24h window.
	Grace time.Duration

	Match        MatchMode
	MozillaRoots bool
	Formats      Formats
	Passwords    []string
	Lenient      bool
	Workers      int
	MaxFileSize  int64
}

// Result is the classified inventory of one directory.
type Result struct {
	TargetDir string    `json:"target_dir"`
	TrustDir  string    `json:"trust_dir"`
	CheckedAt time.Time `json:"checked_at"`
	Report    Report    `json:"report"`
	Entries   []Entry   `json:"entries"`
	Warnings  []Warning `json:"warnings"`
}

// Classify scans the target directory, checks certificate expiry, indexes the
// trust directory and cross-references the two. The scan and the trust index
// are built concurrently. Only an unusable target directory is an error; every
// other problem is returned as a warning alongside a complete report.
func Classify(ctx context.Context, in Input) (*Result, error) {
	if in.TrustDir == "" {
		in.TrustDir = DefaultTrustDir
	}
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	if in.Match == "" {
		in.Match = MatchBasename
	}

	var (
		entries   []Entry
		scanWarns []Warning
		index     *TrustIndex
		trustWarn []Warning
		g         errgroup.Group
	)
	g.Go(func() error {
		var err error
		entries, scanWarns, err = Scan(in.TargetDir, ScanOptions{
			Formats:     in.Formats,
			Passwords:   in.Passwords,
			MaxFileSize: in.MaxFileSize,
		})
		if err != nil {
			return fmt.Errorf("scanning %s: %w", in.TargetDir, err)
		}
		return nil
	})
	g.Go(func() error {
		index, trustWarn = BuildTrustIndex(in.TrustDir, TrustOptions{Mode: in.Match, MozillaRoots: in.MozillaRoots})
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	checked, expiryWarns, err := CheckExpiry(ctx, entries, ExpiryOptions{
		Now:     in.Now,
		Grace:   in.Grace,
		Lenient: in.Lenient,
		Workers: in.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("checking expiry: %w", err)
	}

	warnings := make([]Warning, 0, len(scanWarns)+len(expiryWarns)+len(trustWarn))
	warnings = append(warnings, scanWarns...)
	warnings = append(warnings, expiryWarns...)
	warnings = append(warnings, trustWarn...)

	report := Assemble(checked, index, in.Match)
	slog.Debug("classified directory",
		"path", in.TargetDir,
		"non_certificates", len(report.NonCertificates),
		"expired", len(report.Expired),
		"trusted", len(report.Trusted),
		"untrusted", len(report.Untrusted),
		"warnings", len(warnings))

	return &Result{
		TargetDir: in.TargetDir,
		TrustDir:  in.TrustDir,
		CheckedAt: in.Now,
		Report:    report,
		Entries:   checked,
		Warnings:  warnings,
	}, nil
}
