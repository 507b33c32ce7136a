// Package quic carries full-transfer streams over QUIC connections.
package quic

import (
	"context"
	"net"
	"time"

	q "github.com/quic-go/quic-go"
)

// Config tunes the QUIC connections opened by Listen and Dial.
type Config struct {
	MaxIdleTimeout  time.Duration
	KeepAlivePeriod time.Duration

	// ServerName is the certificate name a listener presents and a dialer
	// insists on.
	ServerName string
	// CertValidity is how long a listener's certificate stays valid.
	CertValidity time.Duration
}

// DefaultConfig returns a 30s idle timeout with 10s keep-alives, and
// certificates named "fullio" that are valid for a day.
func DefaultConfig() Config {
	return Config{
		MaxIdleTimeout:  30 * time.Second,
		KeepAlivePeriod: 10 * time.Second,
		ServerName:      "fullio",
		CertValidity:    24 * time.Hour,
	}
}

func (cfg *Config) setZerosToDefaults() {
	def := DefaultConfig()
	if cfg.MaxIdleTimeout <= 0 {
		cfg.MaxIdleTimeout = def.MaxIdleTimeout
	}
	if cfg.KeepAlivePeriod <= 0 {
		cfg.KeepAlivePeriod = def.KeepAlivePeriod
	}
	if cfg.ServerName == "" {
		cfg.ServerName = def.ServerName
	}
	if cfg.CertValidity <= 0 {
		cfg.CertValidity = def.CertValidity
	}
}

func (cfg Config) quic() *q.Config {
	return &q.Config{
		MaxIdleTimeout:  cfg.MaxIdleTimeout,
		KeepAlivePeriod: cfg.KeepAlivePeriod,
	}
}

type Listener struct {
	inner *q.Listener
}

func Listen(addr string, cfg Config) (*Listener, error) {
	cfg.setZerosToDefaults()
	tlsConf, err := NewServerTLSConfig(cfg)
	if err != nil {
		return nil, err
	}
	ln, err := q.ListenAddr(addr, tlsConf, cfg.quic())
	if err != nil {
		return nil, err
	}
	return &Listener{inner: ln}, nil
}

func (l *Listener) Accept(ctx context.Context) (q.Connection, error) {
	return l.inner.Accept(ctx)
}

func (l *Listener) Addr() net.Addr { return l.inner.Addr() }

func (l *Listener) Close() error { return l.inner.Close() }

func Dial(ctx context.Context, addr string, cfg Config) (q.Connection, error) {
	cfg.setZerosToDefaults()
	return q.DialAddr(ctx, addr, NewClientTLSConfig(cfg), cfg.quic())
}
