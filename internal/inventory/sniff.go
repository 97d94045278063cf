package inventory

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/sensiblebit/certcheck"
)

// binaryExtensions lists file extensions that may hold DER, PKCS#7, PKCS#12
// or JKS data. Only files with these extensions are fed to the binary
// parsers so arbitrary binaries never reach an ASN.1 decoder.
var binaryExtensions = map[string]bool{
	".der":        true,
	".cer":        true,
	".crt":        true,
	".cert":       true,
	".ca":         true,
	".pem":        true, // sometimes DER despite extension
	".p7b":        true,
	".p7c":        true,
	".p7":         true,
	".p12":        true,
	".pfx":        true,
	".jks":        true,
	".keystore":   true,
	".truststore": true,
}

// HasBinaryExtension reports whether path has a recognized binary certificate
// container extension. The extension is matched case-insensitively.
func HasBinaryExtension(path string) bool {
	return binaryExtensions[strings.ToLower(filepath.Ext(path))]
}

// sniffResult is what content sniffing learned about one file.
type sniffResult struct {
	kind   Kind
	format string
	ders   [][]byte
	// err is set for KindInvalidCertificate.
	err error
}

// sniff inspects file content, never the file name, to decide whether data
// holds certificates. The name is consulted only to gate binary parsers in
// FormatsAny mode.
func sniff(path string, data []byte, formats Formats, passwords []string) sniffResult {
	if len(data) == 0 {
		return sniffResult{kind: KindEmpty}
	}

	if certcheck.IsPEM(data) {
		return sniffPEM(data, formats)
	}

	if formats != FormatsAny || !HasBinaryExtension(path) {
		return sniffResult{kind: KindOther}
	}

	if certs, err := x509.ParseCertificates(data); err == nil && len(certs) > 0 {
		return certResult("der", certs)
	}
	if certs, err := certcheck.DecodePKCS7(data); err == nil {
		return certResult("pkcs7", certs)
	}
	if certcheck.IsJKS(data) {
		certs, err := certcheck.DecodeJKSCertificates(data, passwords)
		if err == nil {
			return certResult("jks", certs)
		}
		slog.Debug("JKS not readable with any password", "path", path, "error", err)
		return sniffResult{kind: KindOther, format: "jks"}
	}
	if certs, err := certcheck.DecodePKCS12Certificates(data, passwords); err == nil {
		return certResult("pkcs12", certs)
	}
	return sniffResult{kind: KindOther}
}

func sniffPEM(data []byte, formats Formats) sniffResult {
	ders := certcheck.CertificateBlocks(data)
	if markers := certcheck.CountCertificateMarkers(data); markers > len(ders) {
		return sniffResult{
			kind:   KindInvalidCertificate,
			format: "pem",
			err:    fmt.Errorf("%d of %d PEM certificate blocks could not be decoded", markers-len(ders), markers),
		}
	}
	if len(ders) > 0 {
		return sniffResult{kind: KindCertificate, format: "pem", ders: ders}
	}

	types := certcheck.PEMBlockTypes(data)
	if formats == FormatsAny {
		for _, der := range pkcs7Blocks(data) {
			if certs, err := certcheck.DecodePKCS7(der); err == nil {
				return certResult("pkcs7", certs)
			}
		}
	}

	for _, t := range types {
		switch {
		case strings.Contains(t, "PRIVATE KEY"):
			return sniffResult{kind: KindPrivateKey, format: "pem"}
		case strings.HasSuffix(t, "CERTIFICATE REQUEST"):
			return sniffResult{kind: KindCSR, format: "pem"}
		case strings.HasSuffix(t, "PUBLIC KEY"):
			return sniffResult{kind: KindPublicKey, format: "pem"}
		}
	}
	if len(types) > 0 {
		return sniffResult{kind: KindPEM, format: "pem"}
	}
	// A BEGIN marker with nothing decodable after it
	return sniffResult{kind: KindOther}
}

// pkcs7Blocks returns the payloads of PKCS7 PEM blocks.
func pkcs7Blocks(data []byte) [][]byte {
	var ders [][]byte
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type == "PKCS7" {
			ders = append(ders, block.Bytes)
		}
	}
	return ders
}

func certResult(format string, certs []*x509.Certificate) sniffResult {
	ders := make([][]byte, 0, len(certs))
	for _, c := range certs {
		ders = append(ders, c.Raw)
	}
	return sniffResult{kind: KindCertificate, format: format, ders: ders}
}
