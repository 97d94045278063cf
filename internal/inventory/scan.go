package inventory

import (
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sensiblebit/certcheck"
)

// ScanOptions configures Scan.
type ScanOptions struct {
	Formats     Formats
	Passwords   []string // tried for PKCS#12 and JKS in FormatsAny mode
	MaxFileSize int64    // zero selects DefaultMaxFileSize
}

// Scan lists the immediate entries of dir in directory order and tags each
// one by content sniffing. The directory must exist and be readable; failures
// are returned as *certcheck.NotFoundError, *certcheck.PermissionError or
// certcheck.ErrNotDirectory. Problems with individual entries never fail the
// scan: the entry is kept as a non-certificate and a warning is returned.
func Scan(dir string, opts ScanOptions) ([]Entry, []Warning, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, certcheck.DirError(dir, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s: %w", dir, certcheck.ErrNotDirectory)
	}
	if err := checkReadable(dir); err != nil {
		return nil, nil, certcheck.DirError(dir, err)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, certcheck.DirError(dir, err)
	}

	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}

	entries := make([]Entry, 0, len(dirEntries))
	var warnings []Warning
	for _, de := range dirEntries {
		entry, warn := scanEntry(filepath.Join(dir, de.Name()), opts)
		entries = append(entries, entry)
		if warn != nil {
			slog.Warn("entry not usable", "path", warn.Path, "error", warn.Err)
			warnings = append(warnings, *warn)
		}
	}

	slog.Debug("scanned directory", "path", dir, "entries", len(entries))
	return entries, warnings, nil
}

func scanEntry(path string, opts ScanOptions) (Entry, *Warning) {
	entry := Entry{Path: path, Name: filepath.Base(path)}

	// Stat follows symlinks so a link to a certificate is judged by its target.
	info, err := os.Stat(path)
	if err != nil {
		entry.Kind = KindUnreadable
		return entry, &Warning{Path: path, Err: err}
	}
	switch {
	case info.IsDir():
		entry.Kind = KindDirectory
		return entry, nil
	case !info.Mode().IsRegular():
		// Devices, sockets and pipes are never read.
		entry.Kind = KindOther
		return entry, nil
	case info.Size() > opts.MaxFileSize:
		slog.Debug("skipping oversized file", "path", path, "size", info.Size(), "max", opts.MaxFileSize)
		entry.Kind = KindTooLarge
		return entry, nil
	}

	data, err := readFile(path, opts.MaxFileSize)
	if err != nil {
		entry.Kind = KindUnreadable
		return entry, &Warning{Path: path, Err: err}
	}

	res := sniff(path, data, opts.Formats, opts.Passwords)
	entry.Kind = res.kind
	entry.Format = res.format
	entry.ders = res.ders
	entry.IsCertificate = res.kind == KindCertificate
	slog.Debug("sniffed entry", "path", path, "kind", entry.Kind, "format", entry.Format)
	if res.err != nil {
		return entry, &Warning{Path: path, Err: &certcheck.ParseError{Path: path, Err: res.err}}
	}
	return entry, nil
}

// readFile reads at most limit bytes from path.
func readFile(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// Examine sniffs a single file exactly as Scan would and parses the
// certificates it holds. A path that cannot be read is returned as an error.
// A file that sniffs as a certificate but fails to parse is reported with
// KindInvalidCertificate and a *certcheck.ParseError.
func Examine(path string, opts ScanOptions) (Entry, []*x509.Certificate, error) {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	entry, warn := scanEntry(path, opts)
	if warn != nil {
		var pe *certcheck.ParseError
		if errors.As(warn.Err, &pe) {
			return entry, nil, pe
		}
		return entry, nil, fmt.Errorf("reading %s: %w", path, warn.Err)
	}

	certs := make([]*x509.Certificate, 0, len(entry.ders))
	for _, der := range entry.ders {
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			entry.IsCertificate = false
			entry.Kind = KindInvalidCertificate
			entry.ders = nil
			return entry, nil, &certcheck.ParseError{Path: path, Err: err}
		}
		certs = append(certs, cert)
	}
	if len(certs) > 0 {
		entry.Fingerprint = certcheck.CertFingerprint(certs[0])
		entry.Subject = certs[0].Subject.String()
		entry.NotAfter = earliestNotAfter(certs)
	}
	return entry, certs, nil
}

func earliestNotAfter(certs []*x509.Certificate) time.Time {
	var t time.Time
	for _, c := range certs {
		if t.IsZero() || c.NotAfter.Before(t) {
			t = c.NotAfter
		}
	}
	return t
}
