package model

import (
	"testing"
	"time"
)

func TestStatusConstructorsSetVariantFields(t *testing.T) {
	s := Connected("alpha.example", "deck", 15*time.Millisecond)
	if s.Kind != StatusConnected || s.Host != "alpha.example" || s.Username != "deck" {
		t.Fatalf("unexpected connected status %#v", s)
	}
	if !s.Live() {
		t.Fatalf("expected connected to be live")
	}

	r := Reconnecting("broken pipe")
	if r.Kind != StatusReconnecting || r.LastErr != "broken pipe" {
		t.Fatalf("unexpected reconnecting status %#v", r)
	}
	if r.Live() {
		t.Fatalf("reconnecting must not be live")
	}

	e := StatusFailed("no route to host")
	if e.Kind != StatusError || e.Message != "no route to host" {
		t.Fatalf("unexpected error status %#v", e)
	}
}

func TestStatusStrings(t *testing.T) {
	cases := []struct {
		status ConnectionStatus
		want   string
	}{
		{Disconnected(), "disconnected"},
		{Connecting(), "connecting"},
		{Connected("h", "u", 0), "connected"},
		{Reconnecting(""), "reconnecting"},
		{StatusFailed(""), "error"},
	}
	for _, tc := range cases {
		if got := tc.status.String(); got != tc.want {
			t.Fatalf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestTransferStatusTerminal(t *testing.T) {
	terminal := []TransferStatus{TransferCompleted, TransferFailed, TransferCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("expected %s to be terminal", s)
		}
	}
	open := []TransferStatus{TransferPending, TransferActive, TransferPaused}
	for _, s := range open {
		if s.Terminal() {
			t.Fatalf("expected %s to be non-terminal", s)
		}
	}
}

func TestProfileAddressDefaultsPort(t *testing.T) {
	host, port := Profile{Host: "alpha.example"}.Address()
	if host != "alpha.example" || port != 22 {
		t.Fatalf("expected default port 22, got %s:%d", host, port)
	}
	_, port = Profile{Host: "h", Port: 2222}.Address()
	if port != 2222 {
		t.Fatalf("expected explicit port, got %d", port)
	}
}
