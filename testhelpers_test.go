package certcheck

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/pavlo-v-chernykh/keystore-go/v4"
	"github.com/smallstep/pkcs7"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

// testPKI is a three-level chain with the leaf's private key.
type testPKI struct {
	ca, intermediate, leaf *x509.Certificate
	leafKey                *ecdsa.PrivateKey
}

// generateTestPKI creates a self-signed CA, an intermediate and a leaf.
func generateTestPKI(t *testing.T) testPKI {
	t.Helper()

	caKey := newECKey(t)
	ca := signCert(t, &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}, nil, caKey, caKey)

	interKey := newECKey(t)
	inter := signCert(t, &x509.Certificate{
		SerialNumber:          big.NewInt(2),
		Subject:               pkix.Name{CommonName: "Test Intermediate"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}, ca, &interKey.PublicKey, caKey)

	leafKey := newECKey(t)
	leaf := signCert(t, &x509.Certificate{
		SerialNumber: big.NewInt(3),
		Subject:      pkix.Name{CommonName: "test.example.com"},
		DNSNames:     []string{"test.example.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}, inter, &leafKey.PublicKey, interKey)

	return testPKI{ca: ca, intermediate: inter, leaf: leaf, leafKey: leafKey}
}

func newECKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

// signCert signs template with signer. A nil parent self-signs, in which case
// pub must be the signer itself.
func signCert(t *testing.T, template, parent *x509.Certificate, pub any, signer crypto.Signer) *x509.Certificate {
	t.Helper()
	if parent == nil {
		parent = template
		pub = signer.Public()
	}
	der, err := x509.CreateCertificate(rand.Reader, template, parent, pub, signer)
	if err != nil {
		t.Fatal(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}
	return cert
}

func certPEM(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: BlockCertificate, Bytes: cert.Raw})
}

// encodePKCS7 builds a certs-only PKCS#7 bundle.
func encodePKCS7(t *testing.T, certs ...*x509.Certificate) []byte {
	t.Helper()
	var der []byte
	for _, c := range certs {
		der = append(der, c.Raw...)
	}
	p7, err := pkcs7.DegenerateCertificate(der)
	if err != nil {
		t.Fatalf("encode PKCS#7: %v", err)
	}
	return p7
}

// encodePKCS12TrustStore builds a key-less PKCS#12 trust store.
func encodePKCS12TrustStore(t *testing.T, password string, certs ...*x509.Certificate) []byte {
	t.Helper()
	pfx, err := gopkcs12.Modern.EncodeTrustStore(certs, password)
	if err != nil {
		t.Fatalf("encode PKCS#12 trust store: %v", err)
	}
	return pfx
}

// encodeJKSTrustStore builds a Java KeyStore with one trusted entry per
// certificate.
func encodeJKSTrustStore(t *testing.T, password string, certs ...*x509.Certificate) []byte {
	t.Helper()
	ks := keystore.New()
	for i, c := range certs {
		if err := ks.SetTrustedCertificateEntry(fmt.Sprintf("cert%d", i), keystore.TrustedCertificateEntry{
			CreationTime: time.Now(),
			Certificate:  keystore.Certificate{Type: "X.509", Content: c.Raw},
		}); err != nil {
			t.Fatalf("set trusted entry: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := ks.Store(&buf, []byte(password)); err != nil {
		t.Fatalf("store JKS: %v", err)
	}
	return buf.Bytes()
}
