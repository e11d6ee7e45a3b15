package terminal

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sshdeck/sshdeck/internal/backend/fake"
)

func TestOpenIsIdempotent(t *testing.T) {
	b := fake.New()
	c := NewCoordinator(b)
	ctx := context.Background()

	if err := c.Open(ctx, "conn-1", "alpha.example", "deck"); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := c.Open(ctx, "conn-1", "alpha.example", "deck"); err != nil {
		t.Fatalf("second open failed: %v", err)
	}

	opens := 0
	for _, call := range b.Calls() {
		if call == "terminal.open conn-1" {
			opens++
		}
	}
	if opens != 1 {
		t.Fatalf("expected exactly one backend open, got %d", opens)
	}
	sess, ok := c.Get("conn-1")
	if !ok || !sess.Connected {
		t.Fatalf("expected connected session, got %#v", sess)
	}
}

func TestOpenFailureLeavesTerminalClosed(t *testing.T) {
	b := fake.New()
	b.TerminalErr = errors.New("channel refused")
	c := NewCoordinator(b)

	if err := c.Open(context.Background(), "conn-1", "h", "u"); err == nil {
		t.Fatalf("expected open error")
	}
	if _, ok := c.Get("conn-1"); ok {
		t.Fatalf("expected no session after failed open")
	}
}

func TestSendInputRefusedWhenClosed(t *testing.T) {
	c := NewCoordinator(fake.New())
	err := c.SendInput(context.Background(), "conn-1", []byte("ls\r"))
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestInputErrorFailsTerminalUntilReopen(t *testing.T) {
	b := fake.New()
	c := NewCoordinator(b)
	ctx := context.Background()
	if err := c.Open(ctx, "conn-1", "h", "u"); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	b.TerminalErr = errors.New("broken pipe")
	if err := c.SendInput(ctx, "conn-1", []byte("x")); err == nil {
		t.Fatalf("expected input error")
	}
	sess, _ := c.Get("conn-1")
	if !sess.Failed {
		t.Fatalf("expected failed flag after channel error")
	}

	// Further input is refused without touching the backend.
	if err := c.SendInput(ctx, "conn-1", []byte("y")); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected while failed, got %v", err)
	}

	// Re-open is the recovery path.
	b.TerminalErr = nil
	if err := c.Open(ctx, "conn-1", "h", "u"); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	sess, _ = c.Get("conn-1")
	if sess.Failed || !sess.Connected {
		t.Fatalf("expected recovered session, got %#v", sess)
	}
	if err := c.SendInput(ctx, "conn-1", []byte("z")); err != nil {
		t.Fatalf("input after reopen failed: %v", err)
	}
}

func TestOutputPreservesArrivalOrder(t *testing.T) {
	c := NewCoordinator(fake.New())
	ctx := context.Background()
	if err := c.Open(ctx, "conn-1", "h", "u"); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	c.HandleOutput("conn-1", []byte("one"))
	c.HandleOutput("conn-1", []byte("two"))
	c.HandleOutput("conn-1", []byte("three"))
	c.HandleOutput("ghost", []byte("dropped"))

	chunks := c.Output("conn-1")
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, want := range []string{"one", "two", "three"} {
		if !bytes.Equal(chunks[i], []byte(want)) {
			t.Fatalf("expected chunk %d %q, got %q", i, want, chunks[i])
		}
	}
	if c.Output("ghost") != nil {
		t.Fatalf("expected no buffer for unknown connection")
	}

	// Mutating the returned slice must not leak into the buffer.
	chunks[0][0] = 'X'
	again := c.Output("conn-1")
	if !bytes.Equal(again[0], []byte("one")) {
		t.Fatalf("expected buffer isolation, got %q", again[0])
	}
}

func TestCloseClearsBufferAndKeepsOtherTerminals(t *testing.T) {
	b := fake.New()
	c := NewCoordinator(b)
	ctx := context.Background()
	c.Open(ctx, "conn-1", "h", "u")
	c.Open(ctx, "conn-2", "h", "u")
	c.HandleOutput("conn-1", []byte("data"))
	c.HandleOutput("conn-2", []byte("data"))

	c.Close(ctx, "conn-1")

	sess, ok := c.Get("conn-1")
	if !ok {
		t.Fatalf("expected session entry to survive close")
	}
	if sess.Connected || len(c.Output("conn-1")) != 0 {
		t.Fatalf("expected closed empty terminal, got %#v", sess)
	}
	if len(c.Output("conn-2")) != 1 {
		t.Fatalf("expected other terminal untouched")
	}

	// Closing an unknown connection never reaches the backend.
	before := len(b.Calls())
	c.Close(ctx, "ghost")
	if len(b.Calls()) != before {
		t.Fatalf("expected no backend call for unknown close")
	}
}
