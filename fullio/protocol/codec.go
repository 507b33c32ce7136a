// Package protocol frames messages on top of the full-transfer primitives.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/TheusHen/fullio/fullio/basic"
)

const (
	// MaxFramePayload limits a single frame payload.
	MaxFramePayload = 1 << 20 // 1 MiB

	headerSize = 5
)

var (
	ErrFrameTooLarge = errors.New("protocol: frame payload too large")
	ErrInvalidType   = errors.New("protocol: invalid message type")
)

// Frame is the basic wire container.
// Format:
//
//	1 byte: type
//	4 bytes: payload length (big endian)
//	N bytes: payload
type Frame struct {
	Type    MessageType
	Payload []byte
}

// Encode returns the wire form of f.
func (f Frame) Encode() ([]byte, error) {
	if f.Type == 0 {
		return nil, ErrInvalidType
	}
	if len(f.Payload) > MaxFramePayload {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, headerSize+len(f.Payload))
	buf[0] = byte(f.Type)
	binary.BigEndian.PutUint32(buf[1:headerSize], uint32(len(f.Payload)))
	copy(buf[headerSize:], f.Payload)
	return buf, nil
}

// WriteFrame writes f with a single full write. Validation errors are
// reported through the transport's deferred callback.
func WriteFrame[W basic.Writer](h basic.Handle[W], f Frame, cb func(error)) {
	buf, err := f.Encode()
	if err != nil {
		w, ok := h.Lock()
		if !ok {
			return
		}
		w.DeferWriteCallback(0, err, func(_ int, err error) { cb(err) })
		return
	}
	basic.Write(h, buf, cb)
}

// ReadFrame reads one frame: a full read of the header, then of the payload.
func ReadFrame[R basic.Reader](h basic.Handle[R], cb func(Frame, error)) {
	var hdr [headerSize]byte
	basic.Read(h, hdr[:], func(err error) {
		if err != nil {
			cb(Frame{}, err)
			return
		}
		mt := MessageType(hdr[0])
		if mt == 0 {
			cb(Frame{}, ErrInvalidType)
			return
		}
		size := binary.BigEndian.Uint32(hdr[1:])
		if size > MaxFramePayload {
			cb(Frame{}, fmt.Errorf("%w: %d", ErrFrameTooLarge, size))
			return
		}
		payload := make([]byte, size)
		basic.Read(h, payload, func(err error) {
			if err != nil {
				cb(Frame{}, err)
				return
			}
			cb(Frame{Type: mt, Payload: payload}, nil)
		})
	})
}
