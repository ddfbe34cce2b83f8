package handler

import (
	"bytes"
	"testing"
)

func TestAppendRecvThenReflectConcatenates(t *testing.T) {
	h := New(Reflect)
	h.AppendRecv([]byte("hel"))
	h.AppendRecv([]byte("lo"))
	h.Process()

	if got := h.ResponseWindow(); !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("ResponseWindow() = %q, want %q", got, "hello")
	}
}

func TestHasResponseLatchesUntilDrain(t *testing.T) {
	h := New(Reflect)
	if h.HasResponse() {
		t.Fatal("HasResponse() true with empty send buffer")
	}

	h.AppendRecv([]byte("x"))
	h.Process()

	if !h.HasResponse() {
		t.Fatal("HasResponse() false with non-empty send buffer")
	}
	if !h.HasResponse() {
		t.Fatal("HasResponse() should stay true once latched")
	}
}

func TestStillSendingDrainsAndResets(t *testing.T) {
	h := New(Reflect)
	h.AppendRecv([]byte("hello"))
	h.Process()
	h.HasResponse()

	if !h.StillSending(3) {
		t.Fatal("StillSending(3) should report more to send")
	}
	if got := h.ResponseWindow(); !bytes.Equal(got, []byte("lo")) {
		t.Fatalf("ResponseWindow() = %q, want %q", got, "lo")
	}

	if h.StillSending(2) {
		t.Fatal("StillSending should report drained")
	}
	if h.HasResponse() {
		t.Fatal("HasResponse() should be false after drain")
	}
	if len(h.ResponseWindow()) != 0 {
		t.Fatal("send buffer should be empty after drain")
	}
}

func TestStillSendingIdempotentAtZeroAfterDrain(t *testing.T) {
	h := New(Reflect)
	h.AppendRecv([]byte("x"))
	h.Process()
	h.HasResponse()
	h.StillSending(1)

	if h.StillSending(0) {
		t.Fatal("StillSending(0) after drain should stay false")
	}
}

func TestStillSendingClampsNegative(t *testing.T) {
	h := New(Reflect)
	h.AppendRecv([]byte("hello"))
	h.Process()
	h.HasResponse()

	if !h.StillSending(-5) {
		t.Fatal("StillSending(-5) should be treated as 0 and report more to send")
	}
	if got := h.ResponseWindow(); !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("ResponseWindow() = %q, want %q", got, "hello")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	payload := []byte("hello")
	wire := EncodeFrame(payload)

	want := []byte{0x05, 0x00, 0x00, 0x00, 'h', 'e', 'l', 'l', 'o'}
	if !bytes.Equal(wire, want) {
		t.Fatalf("EncodeFrame = % x, want % x", wire, want)
	}

	got, consumed, ok := DecodeFrame(wire)
	if !ok || consumed != len(wire) || !bytes.Equal(got, payload) {
		t.Fatalf("DecodeFrame = %q, %d, %v", got, consumed, ok)
	}
}

func TestDecodeFrameIncomplete(t *testing.T) {
	wire := EncodeFrame([]byte("hello"))

	if _, _, ok := DecodeFrame(wire[:2]); ok {
		t.Fatal("DecodeFrame should fail on a partial header")
	}
	if _, _, ok := DecodeFrame(wire[:6]); ok {
		t.Fatal("DecodeFrame should fail on a partial payload")
	}
}

func TestZeroLengthFrameIsLegal(t *testing.T) {
	wire := EncodeFrame(nil)
	payload, consumed, ok := DecodeFrame(wire)
	if !ok || consumed != FrameHeaderLen || len(payload) != 0 {
		t.Fatalf("DecodeFrame(zero-length) = %v, %d, %v", payload, consumed, ok)
	}
}
