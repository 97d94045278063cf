// Package inventory classifies the entries of a certificate directory into
// non-certificates, expired certificates, and certificates present in or
// absent from a trust store directory.
//
// The pipeline is Scan -> CheckExpiry -> BuildTrustIndex -> Assemble, wired
// together by Classify. Each stage returns new values; nothing is shared or
// mutated between stages.
package inventory

import (
	"fmt"
	"time"
)

// DefaultTrustDir is the system trust store consulted when none is configured.
const DefaultTrustDir = "/etc/ssl/certs"

// DefaultGrace is the lead time before expiry at which a certificate is
// already reported as expired.
const DefaultGrace = 24 * time.Hour

// DefaultMaxFileSize bounds how much of a single file is read while sniffing.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// Kind describes what the scanner found in a directory entry.
type Kind string

const (
	KindCertificate        Kind = "certificate"
	KindPrivateKey         Kind = "private_key"
	KindCSR                Kind = "csr"
	KindPublicKey          Kind = "public_key"
	KindPEM                Kind = "pem"
	KindDirectory          Kind = "directory"
	KindEmpty              Kind = "empty"
	KindTooLarge           Kind = "too_large"
	KindUnreadable         Kind = "unreadable"
	KindInvalidCertificate Kind = "invalid_certificate"
	KindOther              Kind = "other"
)

// Formats selects which encodings the scanner accepts as certificates.
type Formats string

const (
	// FormatsPEM accepts PEM CERTIFICATE blocks only.
	FormatsPEM Formats = "pem"
	// FormatsAny additionally accepts DER, PKCS#7, JKS and PKCS#12 files with
	// a recognized binary extension.
	FormatsAny Formats = "any"
)

// ParseFormats validates a formats name. The empty string selects FormatsPEM.
func ParseFormats(s string) (Formats, error) {
	switch Formats(s) {
	case "", FormatsPEM:
		return FormatsPEM, nil
	case FormatsAny:
		return FormatsAny, nil
	default:
		return "", fmt.Errorf("unknown formats %q (use pem or any)", s)
	}
}

// Entry is one immediate entry of a scanned directory.
type Entry struct {
	Path          string    `json:"path"`
	Name          string    `json:"name"`
	IsCertificate bool      `json:"is_certificate"`
	Kind          Kind      `json:"kind"`
	Format        string    `json:"format,omitempty"`
	NotAfter      time.Time `json:"not_after,omitzero"`
	Expired       bool      `json:"expired"`
	Fingerprint   string    `json:"sha256_fingerprint,omitempty"`
	Subject       string    `json:"subject,omitempty"`

	// ders holds the unparsed certificate payloads found by the scanner.
	ders [][]byte
}

// Warning is a recovered anomaly: a single entry or the trust store could not
// be used as expected, but classification went on.
type Warning struct {
	Path string
	Err  error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.Path, w.Err)
}

// MarshalText renders the warning for JSON output.
func (w Warning) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}
