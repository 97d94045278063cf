package internal

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/sensiblebit/certcheck"
	"github.com/sensiblebit/certcheck/internal/inventory"
)

// InspectResult describes what a check sees in one file.
type InspectResult struct {
	Path         string         `json:"path"`
	Kind         inventory.Kind `json:"kind"`
	Format       string         `json:"format,omitempty"`
	Problem      string         `json:"problem,omitempty"`
	KeyType      string         `json:"key_type,omitempty"`
	KeySize      string         `json:"key_size,omitempty"`
	Certificates []CertDetails  `json:"certificates,omitempty"`
	CSR          *CSRDetails    `json:"csr,omitempty"`
}

// CertDetails holds the fields shown for each certificate.
type CertDetails struct {
	Subject   string   `json:"subject"`
	Issuer    string   `json:"issuer"`
	Serial    string   `json:"serial"`
	NotBefore string   `json:"not_before"`
	NotAfter  string   `json:"not_after"`
	CertType  string   `json:"cert_type"`
	KeyAlgo   string   `json:"key_algorithm"`
	KeySize   string   `json:"key_size"`
	SANs      []string `json:"sans,omitempty"`
	SHA256    string   `json:"sha256_fingerprint"`
	SigAlg    string   `json:"signature_algorithm"`
}

// CSRDetails holds the fields shown for a certificate request.
type CSRDetails struct {
	Subject  string   `json:"subject"`
	KeyAlgo  string   `json:"key_algorithm"`
	KeySize  string   `json:"key_size"`
	SigAlg   string   `json:"signature_algorithm"`
	DNSNames []string `json:"dns_names,omitempty"`
}

// InspectFile sniffs path the way a directory check would and returns the
// details of what it holds. Only an unreadable path is an error.
func InspectFile(path string, opts inventory.ScanOptions) (*InspectResult, error) {
	entry, certs, err := inventory.Examine(path, opts)
	var pe *certcheck.ParseError
	if err != nil && !errors.As(err, &pe) {
		return nil, err
	}

	r := &InspectResult{Path: path, Kind: entry.Kind, Format: entry.Format}
	if pe != nil {
		r.Problem = pe.Err.Error()
	}
	for _, cert := range certs {
		r.Certificates = append(r.Certificates, inspectCert(cert))
	}

	switch entry.Kind {
	case inventory.KindPrivateKey:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if key, err := certcheck.ParsePEMPrivateKey(data); err == nil {
			r.KeyType = certcheck.KeyAlgorithmName(key)
			r.KeySize = privateKeySize(key)
		} else {
			r.Problem = err.Error()
		}
	case inventory.KindCSR:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if csr, err := certcheck.ParsePEMCertificateRequest(data); err == nil {
			r.CSR = inspectCSR(csr)
		} else {
			r.Problem = err.Error()
		}
	}
	return r, nil
}

func inspectCert(cert *x509.Certificate) CertDetails {
	sans := slices.Concat(cert.DNSNames, formatIPAddresses(cert.IPAddresses), cert.EmailAddresses)
	for _, uri := range cert.URIs {
		sans = append(sans, uri.String())
	}

	return CertDetails{
		Subject:   cert.Subject.String(),
		Issuer:    cert.Issuer.String(),
		Serial:    cert.SerialNumber.String(),
		NotBefore: cert.NotBefore.UTC().Format(time.RFC3339),
		NotAfter:  cert.NotAfter.UTC().Format(time.RFC3339),
		CertType:  certcheck.GetCertificateType(cert),
		KeyAlgo:   certcheck.PublicKeyAlgorithmName(cert.PublicKey),
		KeySize:   publicKeySize(cert.PublicKey),
		SANs:      sans,
		SHA256:    certcheck.CertFingerprintColonSHA256(cert),
		SigAlg:    cert.SignatureAlgorithm.String(),
	}
}

func inspectCSR(csr *x509.CertificateRequest) *CSRDetails {
	return &CSRDetails{
		Subject:  csr.Subject.String(),
		KeyAlgo:  certcheck.PublicKeyAlgorithmName(csr.PublicKey),
		KeySize:  publicKeySize(csr.PublicKey),
		SigAlg:   csr.SignatureAlgorithm.String(),
		DNSNames: csr.DNSNames,
	}
}

func formatIPAddresses(ips []net.IP) []string {
	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		out = append(out, ip.String())
	}
	return out
}

func publicKeySize(pub any) string {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return fmt.Sprintf("%d", k.N.BitLen())
	case *ecdsa.PublicKey:
		return k.Curve.Params().Name
	case ed25519.PublicKey:
		return "256"
	default:
		return "unknown"
	}
}

func privateKeySize(key any) string {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return fmt.Sprintf("%d", k.N.BitLen())
	case *ecdsa.PrivateKey:
		return k.Curve.Params().Name
	case ed25519.PrivateKey, *ed25519.PrivateKey:
		return "256"
	default:
		return "unknown"
	}
}

// FormatInspectResult formats an inspection result as text or JSON.
func FormatInspectResult(r *InspectResult, format string) (string, error) {
	switch format {
	case "", "text":
		return formatInspectText(r), nil
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshaling JSON: %w", err)
		}
		return string(data) + "\n", nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use text or json)", format)
	}
}

func formatInspectText(r *InspectResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "File:          %s\n", r.Path)
	fmt.Fprintf(&sb, "Kind:          %s\n", r.Kind)
	if r.Format != "" {
		fmt.Fprintf(&sb, "Format:        %s\n", r.Format)
	}
	if r.Problem != "" {
		fmt.Fprintf(&sb, "Problem:       %s\n", r.Problem)
	}
	if r.KeyType != "" {
		fmt.Fprintf(&sb, "Key:           %s %s\n", r.KeyType, r.KeySize)
	}
	if c := r.CSR; c != nil {
		fmt.Fprintf(&sb, "\nCertificate Signing Request:\n")
		fmt.Fprintf(&sb, "  Subject:     %s\n", c.Subject)
		fmt.Fprintf(&sb, "  Key:         %s %s\n", c.KeyAlgo, c.KeySize)
		fmt.Fprintf(&sb, "  Signature:   %s\n", c.SigAlg)
		if len(c.DNSNames) > 0 {
			fmt.Fprintf(&sb, "  DNS Names:   %s\n", strings.Join(c.DNSNames, ", "))
		}
	}
	for _, c := range r.Certificates {
		fmt.Fprintf(&sb, "\nCertificate:\n")
		fmt.Fprintf(&sb, "  Subject:     %s\n", c.Subject)
		if len(c.SANs) > 0 {
			fmt.Fprintf(&sb, "  SANs:        %s\n", strings.Join(c.SANs, ", "))
		}
		fmt.Fprintf(&sb, "  Issuer:      %s\n", c.Issuer)
		fmt.Fprintf(&sb, "  Serial:      %s\n", c.Serial)
		fmt.Fprintf(&sb, "  Type:        %s\n", c.CertType)
		fmt.Fprintf(&sb, "  Not Before:  %s\n", c.NotBefore)
		fmt.Fprintf(&sb, "  Not After:   %s\n", c.NotAfter)
		fmt.Fprintf(&sb, "  Key:         %s %s\n", c.KeyAlgo, c.KeySize)
		fmt.Fprintf(&sb, "  Signature:   %s\n", c.SigAlg)
		fmt.Fprintf(&sb, "  SHA-256:     %s\n", c.SHA256)
	}
	return sb.String()
}
