package certcheck

import (
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/smallstep/pkcs7"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

// DecodePKCS7 decodes a DER-encoded PKCS#7 bundle and returns the certificates it contains.
// Returns an error if decoding fails or the bundle contains no certificates.
func DecodePKCS7(derData []byte) ([]*x509.Certificate, error) {
	p7, err := pkcs7.Parse(derData)
	if err != nil {
		return nil, fmt.Errorf("parsing PKCS#7: %w", err)
	}
	if len(p7.Certificates) == 0 {
		return nil, errors.New("PKCS#7 bundle contains no certificates")
	}
	return p7.Certificates, nil
}

// DecodePKCS12Certificates opens a PKCS#12/PFX file with each password in turn
// and returns the certificates it holds. Bundles carrying a private key yield
// the leaf followed by the CA chain; certificate-only trust stores yield their
// trusted entries. Private keys are discarded.
func DecodePKCS12Certificates(pfxData []byte, passwords []string) ([]*x509.Certificate, error) {
	var lastErr error
	for _, password := range passwords {
		_, leaf, caCerts, err := gopkcs12.DecodeChain(pfxData, password)
		if err == nil {
			certs := make([]*x509.Certificate, 0, len(caCerts)+1)
			if leaf != nil {
				certs = append(certs, leaf)
			}
			certs = append(certs, caCerts...)
			if len(certs) > 0 {
				return certs, nil
			}
		}
		trusted, tsErr := gopkcs12.DecodeTrustStore(pfxData, password)
		if tsErr == nil && len(trusted) > 0 {
			return trusted, nil
		}
		lastErr = errors.Join(err, tsErr)
	}
	if lastErr == nil {
		lastErr = errors.New("no passwords to try")
	}
	return nil, fmt.Errorf("decoding PKCS#12: %w", lastErr)
}
