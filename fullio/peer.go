package fullio

import (
	"context"
	"errors"
	"net"

	"github.com/TheusHen/fullio/fullio/loop"
	"github.com/TheusHen/fullio/fullio/stream"
	"github.com/TheusHen/fullio/fullio/transport/quic"
	q "github.com/quic-go/quic-go"
	"github.com/sirupsen/logrus"
)

var ErrNotListening = errors.New("fullio: peer is not listening")

// Peer accepts and dials QUIC connections whose streams complete on one
// loop.
type Peer struct {
	loop     *loop.Loop
	cfg      quic.Config
	logger   logrus.FieldLogger
	listener *quic.Listener
}

// NewPeer returns a peer posting stream completions to l. A nil logger
// means logrus.StandardLogger().
func NewPeer(l *loop.Loop, logger logrus.FieldLogger) *Peer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Peer{loop: l, cfg: quic.DefaultConfig(), logger: logger}
}

func (p *Peer) Listen(addr string) error {
	ln, err := quic.Listen(addr, p.cfg)
	if err != nil {
		return err
	}
	p.listener = ln
	p.logger.WithField("addr", ln.Addr().String()).Info("listening")
	return nil
}

func (p *Peer) ListenAddr() string {
	if p.listener == nil {
		return ""
	}
	return p.listener.Addr().String()
}

func (p *Peer) Close() error {
	if p.listener == nil {
		return nil
	}
	return p.listener.Close()
}

func (p *Peer) Accept(ctx context.Context) (*Conn, error) {
	if p.listener == nil {
		return nil, ErrNotListening
	}
	conn, err := p.listener.Accept(ctx)
	if err != nil {
		return nil, err
	}
	return p.wrap(conn), nil
}

func (p *Peer) Dial(ctx context.Context, addr string) (*Conn, error) {
	conn, err := quic.Dial(ctx, addr, p.cfg)
	if err != nil {
		return nil, err
	}
	return p.wrap(conn), nil
}

func (p *Peer) wrap(conn q.Connection) *Conn {
	logger := p.logger.WithField("remote", conn.RemoteAddr().String())
	logger.Debug("connection established")
	return &Conn{conn: conn, loop: p.loop, logger: logger}
}

// Conn is one QUIC connection. Its streams are basic.ReadWriters.
type Conn struct {
	conn   q.Connection
	loop   *loop.Loop
	logger logrus.FieldLogger
}

func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// OpenStream opens a stream. The peer sees it once the first byte is
// written.
func (c *Conn) OpenStream(ctx context.Context) (*stream.Stream, error) {
	str, err := c.conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	return c.wrap(str), nil
}

func (c *Conn) AcceptStream(ctx context.Context) (*stream.Stream, error) {
	str, err := c.conn.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}
	return c.wrap(str), nil
}

func (c *Conn) wrap(str q.Stream) *stream.Stream {
	return stream.New(c.loop, str, stream.WithLogger(c.logger.WithField("stream", int64(str.StreamID()))))
}

func (c *Conn) Close() error {
	return c.conn.CloseWithError(0, "")
}
