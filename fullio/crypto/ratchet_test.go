package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestChainStepsInLockstep(t *testing.T) {
	seed := bytes.Repeat([]byte{9}, 32)
	a, err := NewChain(seed)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	b, _ := NewChain(seed)

	var prev []byte
	for i := 0; i < 4; i++ {
		ka, err := a.Step()
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		kb, _ := b.Step()
		if !bytes.Equal(ka, kb) {
			t.Fatalf("step %d: chains diverged", i)
		}
		if len(ka) != 32 || bytes.Equal(ka, prev) || bytes.Equal(ka, seed) {
			t.Fatalf("step %d: key did not advance", i)
		}
		prev = ka
	}
	if a.Generation() != 4 {
		t.Fatalf("expected generation 4, got %d", a.Generation())
	}
}

func TestChainLimits(t *testing.T) {
	if _, err := NewChain(make([]byte, 16)); !errors.Is(err, ErrInvalidChainKey) {
		t.Fatalf("expected ErrInvalidChainKey, got %v", err)
	}
	c, _ := NewChain(make([]byte, 32))
	c.generation = maxGeneration
	if _, err := c.Step(); !errors.Is(err, ErrRatchetExhausted) {
		t.Fatalf("expected ErrRatchetExhausted, got %v", err)
	}
}
