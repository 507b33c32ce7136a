package quic

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// ALPN is the application protocol negotiated on every connection.
const ALPN = "fullio/1"

var (
	ErrNoPeerCertificate  = errors.New("quic: peer presented no certificate")
	ErrServerName         = errors.New("quic: certificate issued to another server name")
	ErrCertificateExpired = errors.New("quic: certificate outside its validity window")
	ErrNotSelfSigned      = errors.New("quic: certificate signature does not verify against its own key")
)

// NewServerTLSConfig returns a TLS 1.3 config holding a fresh Ed25519
// certificate issued to cfg.ServerName and valid for cfg.CertValidity.
func NewServerTLSConfig(cfg Config) (*tls.Config, error) {
	cfg.setZerosToDefaults()
	cert, err := selfSignedCertificate(cfg.ServerName, cfg.CertValidity)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS13,
		NextProtos:   []string{ALPN},
	}, nil
}

// NewClientTLSConfig returns a TLS 1.3 config without a certificate of its
// own. It accepts a server certificate only if the certificate is issued to
// cfg.ServerName, is within its validity window, and is signed by its own
// key.
func NewClientTLSConfig(cfg Config) *tls.Config {
	cfg.setZerosToDefaults()
	name := cfg.ServerName
	return &tls.Config{
		ServerName: name,
		MinVersion: tls.VersionTLS13,
		NextProtos: []string{ALPN},
		// There is no chain to a root; VerifyConnection does the checking.
		InsecureSkipVerify: true,
		VerifyConnection: func(cs tls.ConnectionState) error {
			return verifySelfSigned(cs.PeerCertificates, name, time.Now())
		},
	}
}

func selfSignedCertificate(name string, validity time.Duration) (tls.Certificate, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return tls.Certificate{}, err
	}
	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return tls.Certificate{}, err
	}

	now := time.Now()
	tpl := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: name},
		DNSNames:              []string{name},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(validity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &tpl, &tpl, pub, priv)
	if err != nil {
		return tls.Certificate{}, err
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv, Leaf: leaf}, nil
}

func verifySelfSigned(certs []*x509.Certificate, name string, now time.Time) error {
	if len(certs) == 0 {
		return ErrNoPeerCertificate
	}
	leaf := certs[0]
	if leaf.Subject.CommonName != name {
		return fmt.Errorf("%w: %q, want %q", ErrServerName, leaf.Subject.CommonName, name)
	}
	if now.Before(leaf.NotBefore) || now.After(leaf.NotAfter) {
		return fmt.Errorf("%w: valid %s to %s", ErrCertificateExpired,
			leaf.NotBefore.Format(time.RFC3339), leaf.NotAfter.Format(time.RFC3339))
	}
	if err := leaf.CheckSignature(leaf.SignatureAlgorithm, leaf.RawTBSCertificate, leaf.Signature); err != nil {
		return fmt.Errorf("%w: %v", ErrNotSelfSigned, err)
	}
	return nil
}
