package quic

import (
	"crypto/x509"
	"errors"
	"testing"
	"time"
)

func TestServerTLSConfigCertificate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ServerName = "node-7"
	cfg.CertValidity = time.Hour

	conf, err := NewServerTLSConfig(cfg)
	if err != nil {
		t.Fatalf("NewServerTLSConfig: %v", err)
	}
	if len(conf.Certificates) != 1 {
		t.Fatalf("expected one certificate, got %d", len(conf.Certificates))
	}
	leaf := conf.Certificates[0].Leaf
	if leaf == nil {
		t.Fatalf("certificate leaf not populated")
	}
	if leaf.Subject.CommonName != "node-7" {
		t.Fatalf("unexpected common name %q", leaf.Subject.CommonName)
	}
	if life := leaf.NotAfter.Sub(time.Now()); life > time.Hour || life < 50*time.Minute {
		t.Fatalf("unexpected remaining validity %v", life)
	}
	if conf.InsecureSkipVerify || conf.VerifyConnection != nil {
		t.Fatalf("server config should not verify peers")
	}
}

func TestClientTLSConfigHasNoCertificate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ServerName = "node-7"

	conf := NewClientTLSConfig(cfg)
	if len(conf.Certificates) != 0 {
		t.Fatalf("client config should carry no certificate")
	}
	if conf.ServerName != "node-7" {
		t.Fatalf("unexpected server name %q", conf.ServerName)
	}
	if conf.VerifyConnection == nil {
		t.Fatalf("client config must verify the server certificate")
	}
	if len(conf.NextProtos) != 1 || conf.NextProtos[0] != ALPN {
		t.Fatalf("unexpected ALPN %v", conf.NextProtos)
	}
}

func TestZeroConfigUsesDefaults(t *testing.T) {
	conf, err := NewServerTLSConfig(Config{})
	if err != nil {
		t.Fatalf("NewServerTLSConfig: %v", err)
	}
	if name := conf.Certificates[0].Leaf.Subject.CommonName; name != DefaultConfig().ServerName {
		t.Fatalf("unexpected default name %q", name)
	}
	if NewClientTLSConfig(Config{}).ServerName != DefaultConfig().ServerName {
		t.Fatalf("client did not default its server name")
	}
}

func TestVerifySelfSigned(t *testing.T) {
	cert, err := selfSignedCertificate("alpha", time.Hour)
	if err != nil {
		t.Fatalf("selfSignedCertificate: %v", err)
	}
	other, err := selfSignedCertificate("alpha", time.Hour)
	if err != nil {
		t.Fatalf("selfSignedCertificate: %v", err)
	}
	now := time.Now()

	if err := verifySelfSigned(nil, "alpha", now); !errors.Is(err, ErrNoPeerCertificate) {
		t.Fatalf("expected ErrNoPeerCertificate, got %v", err)
	}
	leaf := cert.Leaf
	if err := verifySelfSigned([]*x509.Certificate{leaf}, "alpha", now); err != nil {
		t.Fatalf("valid certificate rejected: %v", err)
	}
	if err := verifySelfSigned([]*x509.Certificate{leaf}, "beta", now); !errors.Is(err, ErrServerName) {
		t.Fatalf("expected ErrServerName, got %v", err)
	}
	if err := verifySelfSigned([]*x509.Certificate{leaf}, "alpha", now.Add(2*time.Hour)); !errors.Is(err, ErrCertificateExpired) {
		t.Fatalf("expected ErrCertificateExpired, got %v", err)
	}

	// A certificate whose signature was made by another key.
	forged := *leaf
	forged.Signature = other.Leaf.Signature
	if err := verifySelfSigned([]*x509.Certificate{&forged}, "alpha", now); !errors.Is(err, ErrNotSelfSigned) {
		t.Fatalf("expected ErrNotSelfSigned, got %v", err)
	}
}
