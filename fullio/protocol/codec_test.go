package protocol

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/TheusHen/fullio/fullio/basic"
	"github.com/TheusHen/fullio/fullio/loop"
	"github.com/TheusHen/fullio/fullio/stream"
)

type frameResult struct {
	f   Frame
	err error
}

func pipeStreams(t *testing.T) (*stream.Stream, *stream.Stream) {
	t.Helper()
	l := loop.New(loop.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()

	a, b := net.Pipe()
	sa, sb := stream.New(l, a), stream.New(l, b)
	t.Cleanup(func() {
		_ = sa.Close()
		_ = sb.Close()
		_ = l.Close()
		cancel()
	})
	return sa, sb
}

func TestFrameRoundTrip(t *testing.T) {
	sa, sb := pipeStreams(t)

	frames := []Frame{
		{Type: MessageTypeHello, Payload: []byte("hi")},
		{Type: MessageTypeClose},
		{Type: MessageTypeData, Payload: bytes.Repeat([]byte{0xab}, 70000)},
	}

	writeErr := make(chan error, len(frames))
	var send func(i int)
	send = func(i int) {
		if i == len(frames) {
			return
		}
		WriteFrame(basic.Weak(sa), frames[i], func(err error) {
			writeErr <- err
			send(i + 1)
		})
	}
	send(0)

	got := make(chan frameResult, len(frames))
	var recv func(i int)
	recv = func(i int) {
		if i == len(frames) {
			return
		}
		ReadFrame(basic.Weak(sb), func(f Frame, err error) {
			got <- frameResult{f, err}
			recv(i + 1)
		})
	}
	recv(0)

	for i, want := range frames {
		select {
		case r := <-got:
			if r.err != nil {
				t.Fatalf("ReadFrame %d: %v", i, r.err)
			}
			if r.f.Type != want.Type || !bytes.Equal(r.f.Payload, want.Payload) {
				t.Fatalf("frame %d mismatch: %v/%d bytes", i, r.f.Type, len(r.f.Payload))
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for frame %d", i)
		}
		if err := <-writeErr; err != nil {
			t.Fatalf("WriteFrame %d: %v", i, err)
		}
	}
}

func TestWriteFrameInvalidTypeIsDeferred(t *testing.T) {
	sa, _ := pipeStreams(t)

	errCh := make(chan error, 1)
	WriteFrame(basic.Weak(sa), Frame{}, func(err error) { errCh <- err })

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrInvalidType) {
			t.Fatalf("expected ErrInvalidType, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out")
	}
}

func TestReadFrameTooLarge(t *testing.T) {
	sa, sb := pipeStreams(t)

	hdr := []byte{byte(MessageTypeData), 0xff, 0xff, 0xff, 0xff}
	basic.Write(basic.Weak(sa), hdr, func(error) {})

	errCh := make(chan error, 1)
	ReadFrame(basic.Weak(sb), func(_ Frame, err error) { errCh <- err })

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrFrameTooLarge) {
			t.Fatalf("expected ErrFrameTooLarge, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out")
	}
}

func TestMessageTypeString(t *testing.T) {
	if MessageTypeManifest.String() != "MANIFEST" || MessageType(99).String() != "UNKNOWN" {
		t.Fatalf("unexpected names")
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	_, err := Frame{Type: MessageTypeData, Payload: make([]byte, MaxFramePayload+1)}.Encode()
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}
