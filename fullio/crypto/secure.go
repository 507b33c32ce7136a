package crypto

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/TheusHen/fullio/fullio/basic"
	"golang.org/x/crypto/curve25519"
)

const (
	// MaxRecordPlaintext is the largest plaintext sealed into one record.
	MaxRecordPlaintext = 16 * 1024

	recordHeaderSize = 4
)

var (
	ErrRecordTooLarge = errors.New("crypto: record too large")
	ErrEmptyRecord    = errors.New("crypto: empty record")
)

// Role selects which side of the key schedule a party takes.
type Role int

const (
	Initiator Role = iota
	Responder
)

// Conn is an encrypted basic.ReadWriter layered on another one. Writes are
// sealed into records of at most MaxRecordPlaintext bytes; reads open one
// record at a time and serve its plaintext across as many ReadSome calls as
// needed. Each direction steps its key chain every RekeyInterval records.
type Conn[T basic.ReadWriter] struct {
	inner basic.Handle[T]

	send      *AEAD
	sendChain *Chain
	sealed    int // records under the current send key

	recv      *AEAD
	recvChain *Chain
	opened    int // records under the current receive key

	rekeyEvery int
	plain      []byte // opened but not yet delivered
}

var _ basic.ReadWriter = (*Conn[basic.ReadWriter])(nil)

// Handshake exchanges ephemeral X25519 keys over h and reports an
// established Conn. The public key write and the peer's key read run
// concurrently; cb fires once both have finished.
func Handshake[T basic.ReadWriter](h basic.Handle[T], role Role, cb func(*Conn[T], error)) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t, ok := h.Lock()
		if !ok {
			return
		}
		t.DeferWriteCallback(0, err, func(_ int, err error) { cb(nil, err) })
		return
	}

	var (
		mu       sync.Mutex
		pending  = 2
		firstErr error
		peer     [curve25519.PointSize]byte
	)
	finish := func(err error) {
		mu.Lock()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		pending--
		last := pending == 0
		mu.Unlock()
		if !last {
			return
		}
		if firstErr != nil {
			cb(nil, fmt.Errorf("crypto: handshake: %w", firstErr))
			return
		}
		c, err := establish(h, role, kp, peer)
		cb(c, err)
	}

	basic.Write(h, kp.Public[:], finish)
	basic.Read(h, peer[:], finish)
}

func establish[T basic.ReadWriter](h basic.Handle[T], role Role, kp KeyPair, peer [32]byte) (*Conn[T], error) {
	shared, err := kp.SharedSecret(peer)
	if err != nil {
		return nil, err
	}
	initiatorPub, responderPub := kp.Public, peer
	if role == Responder {
		initiatorPub, responderPub = peer, kp.Public
	}
	toResponder, toInitiator, err := DeriveSessionKeys(shared, initiatorPub, responderPub)
	if err != nil {
		return nil, err
	}
	sendKey, recvKey := toResponder, toInitiator
	if role == Responder {
		sendKey, recvKey = toInitiator, toResponder
	}

	c := &Conn[T]{inner: h, rekeyEvery: RekeyInterval}
	if c.sendChain, err = NewChain(sendKey); err != nil {
		return nil, err
	}
	if c.recvChain, err = NewChain(recvKey); err != nil {
		return nil, err
	}
	if c.send, err = nextAEAD(c.sendChain); err != nil {
		return nil, err
	}
	if c.recv, err = nextAEAD(c.recvChain); err != nil {
		return nil, err
	}
	return c, nil
}

// Inner returns the handle of the transport the records travel over.
func (c *Conn[T]) Inner() basic.Handle[T] { return c.inner }

func (c *Conn[T]) WriteSome(in []byte, n int, cb basic.WriteCallback) {
	n = min(n, len(in), MaxRecordPlaintext)
	if n <= 0 {
		c.DeferWriteCallback(0, nil, cb)
		return
	}

	if c.sealed == c.rekeyEvery {
		send, err := nextAEAD(c.sendChain)
		if err != nil {
			c.DeferWriteCallback(0, err, cb)
			return
		}
		c.send, c.sealed = send, 0
	}

	record := make([]byte, recordHeaderSize, recordHeaderSize+c.send.Overhead()+n)
	record = c.send.Seal(record, in[:n], nil)
	c.sealed++
	binary.BigEndian.PutUint32(record[:recordHeaderSize], uint32(len(record)-recordHeaderSize))

	basic.Write(c.inner, record, func(err error) {
		if err != nil {
			cb(0, err)
			return
		}
		cb(n, nil)
	})
}

func (c *Conn[T]) ReadSome(out []byte, n int, cb basic.ReadCallback) {
	n = min(n, len(out))
	if n <= 0 {
		c.DeferReadCallback(0, nil, cb)
		return
	}
	if len(c.plain) > 0 {
		k := copy(out[:n], c.plain)
		c.plain = c.plain[k:]
		c.DeferReadCallback(k, nil, cb)
		return
	}

	var hdr [recordHeaderSize]byte
	basic.Read(c.inner, hdr[:], func(err error) {
		if err != nil {
			cb(0, err)
			return
		}
		size := binary.BigEndian.Uint32(hdr[:])
		if size > uint32(MaxRecordPlaintext+c.recv.Overhead()) {
			cb(0, fmt.Errorf("%w: %d bytes", ErrRecordTooLarge, size))
			return
		}
		if size < uint32(c.recv.Overhead()) {
			cb(0, ErrCiphertextTooShort)
			return
		}
		sealed := make([]byte, size)
		basic.Read(c.inner, sealed, func(err error) {
			if err != nil {
				cb(0, err)
				return
			}
			if c.opened == c.rekeyEvery {
				recv, err := nextAEAD(c.recvChain)
				if err != nil {
					cb(0, err)
					return
				}
				c.recv, c.opened = recv, 0
			}
			plain, err := c.recv.Open(nil, sealed, nil)
			if err != nil {
				cb(0, err)
				return
			}
			c.opened++
			if len(plain) == 0 {
				cb(0, ErrEmptyRecord)
				return
			}
			k := copy(out[:n], plain)
			c.plain = plain[k:]
			cb(k, nil)
		})
	})
}

func (c *Conn[T]) DeferReadCallback(n int, err error, cb basic.ReadCallback) {
	if t, ok := c.inner.Lock(); ok {
		t.DeferReadCallback(n, err, cb)
	}
}

func (c *Conn[T]) DeferWriteCallback(n int, err error, cb basic.WriteCallback) {
	if t, ok := c.inner.Lock(); ok {
		t.DeferWriteCallback(n, err, cb)
	}
}
