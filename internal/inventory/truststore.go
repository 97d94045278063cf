package inventory

import (
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/breml/rootcerts/embedded"

	"github.com/sensiblebit/certcheck"
)

// MatchMode selects how certificates are matched against the trust store.
type MatchMode string

const (
	// MatchBasename treats a certificate as trusted when the trust directory
	// holds an entry with the same file name. File contents are not compared,
	// so two different certificates sharing a name match.
	MatchBasename MatchMode = "basename"
	// MatchFingerprint treats a certificate as trusted when a certificate with
	// the same SHA-256 fingerprint exists in the trust directory.
	MatchFingerprint MatchMode = "fingerprint"
)

// ParseMatchMode validates a match mode name. The empty string selects
// MatchBasename.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(s) {
	case "", MatchBasename:
		return MatchBasename, nil
	case MatchFingerprint:
		return MatchFingerprint, nil
	default:
		return "", fmt.Errorf("unknown match mode %q (use basename or fingerprint)", s)
	}
}

// TrustOptions configures BuildTrustIndex.
type TrustOptions struct {
	Mode MatchMode
	// MozillaRoots adds the embedded Mozilla root program certificates to the
	// fingerprint set. Ignored in MatchBasename mode.
	MozillaRoots bool
}

// TrustIndex is a read-only view of a trust store directory.
type TrustIndex struct {
	Dir          string
	names        []string
	nameSet      map[string]struct{}
	fingerprints map[string]struct{}
}

// Names returns the basenames of the trust directory in directory order.
func (t *TrustIndex) Names() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.names...)
}

// HasName reports whether the trust directory holds an entry named name.
func (t *TrustIndex) HasName(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.nameSet[name]
	return ok
}

// HasFingerprint reports whether a certificate with the given SHA-256
// fingerprint was found while indexing.
func (t *TrustIndex) HasFingerprint(fp string) bool {
	if t == nil || fp == "" {
		return false
	}
	_, ok := t.fingerprints[fp]
	return ok
}

// Len returns the number of trust directory entries.
func (t *TrustIndex) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// FingerprintCount returns the number of distinct certificate fingerprints.
func (t *TrustIndex) FingerprintCount() int {
	if t == nil {
		return 0
	}
	return len(t.fingerprints)
}

// BuildTrustIndex lists dir once and records the basename of every entry. In
// MatchFingerprint mode it also reads each file and records the fingerprints
// of the certificates it holds. An inaccessible trust directory is not an
// error: the index is left empty and a warning is returned.
func BuildTrustIndex(dir string, opts TrustOptions) (*TrustIndex, []Warning) {
	idx := &TrustIndex{
		Dir:          dir,
		nameSet:      make(map[string]struct{}),
		fingerprints: make(map[string]struct{}),
	}
	var warnings []Warning

	if opts.Mode == MatchFingerprint && opts.MozillaRoots {
		n := idx.addPEM([]byte(embedded.MozillaCACertificatesPEM()))
		slog.Debug("indexed embedded Mozilla roots", "count", n)
	}

	dirEntries, err := listTrustDir(dir)
	if err != nil {
		w := Warning{Path: dir, Err: err}
		slog.Warn("trust store not readable, treating every certificate as untrusted", "path", dir, "error", err)
		return idx, append(warnings, w)
	}

	for _, de := range dirEntries {
		name := de.Name()
		idx.names = append(idx.names, name)
		idx.nameSet[name] = struct{}{}
		if opts.Mode == MatchFingerprint {
			idx.addFile(filepath.Join(dir, name))
		}
	}

	slog.Debug("indexed trust store", "path", dir, "entries", len(idx.names), "fingerprints", len(idx.fingerprints))
	return idx, warnings
}

func listTrustDir(dir string) ([]os.DirEntry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, certcheck.DirError(dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, certcheck.ErrNotDirectory)
	}
	if err := checkReadable(dir); err != nil {
		return nil, certcheck.DirError(dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, certcheck.DirError(dir, err)
	}
	return entries, nil
}

// addFile records the fingerprints of the certificates in a trust store file.
// Unreadable or non-certificate files are skipped; the trust store is never
// validated.
func (t *TrustIndex) addFile(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() > DefaultMaxFileSize {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Debug("skipping unreadable trust store file", "path", path, "error", err)
		return
	}
	if certcheck.IsPEM(data) {
		t.addPEM(data)
		return
	}
	if cert, err := x509.ParseCertificate(data); err == nil {
		t.fingerprints[certcheck.CertFingerprint(cert)] = struct{}{}
	}
}

func (t *TrustIndex) addPEM(data []byte) int {
	ders := certcheck.CertificateBlocks(data)
	for _, der := range ders {
		t.fingerprints[certcheck.Fingerprint(der)] = struct{}{}
	}
	return len(ders)
}
