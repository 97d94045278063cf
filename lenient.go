package certcheck

import (
	"errors"
	"fmt"
	"time"

	ctx509 "github.com/google/certificate-transparency-go/x509"
)

// LenientCertificate holds the fields read from a certificate that the
// standard library parser rejected but the certificate-transparency parser
// accepted with only non-fatal errors.
type LenientCertificate struct {
	Raw      []byte
	Subject  string
	NotAfter time.Time
	// Problems lists the non-fatal parse errors that were tolerated.
	Problems []string
}

// ParseCertificateLenient parses DER certificate bytes with the
// certificate-transparency x509 fork, which tolerates many encoding defects
// found in real-world certificates.
func ParseCertificateLenient(der []byte) (*LenientCertificate, error) {
	cert, err := ctx509.ParseCertificate(der)
	if cert == nil || ctx509.IsFatal(err) {
		if err == nil {
			err = errors.New("no certificate returned")
		}
		return nil, fmt.Errorf("lenient parsing: %w", err)
	}
	lc := &LenientCertificate{
		Raw:      cert.Raw,
		Subject:  cert.Subject.String(),
		NotAfter: cert.NotAfter,
	}
	if err != nil {
		lc.Problems = append(lc.Problems, err.Error())
	}
	return lc, nil
}
