package certcheck

import (
	"bytes"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/pavlo-v-chernykh/keystore-go/v4"
)

// jksMagic is the leading four bytes of every Java KeyStore.
var jksMagic = []byte{0xFE, 0xED, 0xFE, 0xED}

// IsJKS reports whether data starts with the Java KeyStore magic bytes.
func IsJKS(data []byte) bool {
	return bytes.HasPrefix(data, jksMagic)
}

// DecodeJKSCertificates loads a Java KeyStore with each password in turn and
// returns every certificate it holds: trusted certificate entries and the
// chains of private key entries. Entries that fail to parse are skipped; an
// error is returned only if the store cannot be loaded or holds no usable
// certificates.
func DecodeJKSCertificates(data []byte, passwords []string) ([]*x509.Certificate, error) {
	var (
		ks      keystore.KeyStore
		loadErr error
		loaded  bool
	)
	for _, password := range passwords {
		ks = keystore.New()
		if loadErr = ks.Load(bytes.NewReader(data), []byte(password)); loadErr == nil {
			loaded = true
			break
		}
	}
	if !loaded {
		if loadErr == nil {
			loadErr = errors.New("no passwords to try")
		}
		return nil, fmt.Errorf("loading JKS: %w", loadErr)
	}

	var certs []*x509.Certificate
	for _, alias := range ks.Aliases() {
		if ks.IsTrustedCertificateEntry(alias) {
			entry, err := ks.GetTrustedCertificateEntry(alias)
			if err != nil {
				continue
			}
			cert, err := x509.ParseCertificate(entry.Certificate.Content)
			if err != nil {
				continue
			}
			certs = append(certs, cert)
		}

		if ks.IsPrivateKeyEntry(alias) {
			chain, err := ks.GetPrivateKeyEntryCertificateChain(alias)
			if err != nil {
				continue
			}
			for _, c := range chain {
				cert, err := x509.ParseCertificate(c.Content)
				if err != nil {
					continue
				}
				certs = append(certs, cert)
			}
		}
	}

	if len(certs) == 0 {
		return nil, errors.New("JKS contains no usable certificates")
	}
	return certs, nil
}
