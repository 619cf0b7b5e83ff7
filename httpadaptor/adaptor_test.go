package httpadaptor

import (
	"net/http"
	"testing"
)

// These tests exercise bridgeWriter directly, the same way Handler's
// goroutine drives it; a full Handler(...)(req) round trip needs a
// live httpcore connection and is not exercised here.

func TestBridgeWriterBuffered(t *testing.T) {
	t.Parallel()

	w := newBridgeWriter()
	w.Header().Set("X-Test", "yes")
	w.WriteHeader(http.StatusCreated)
	w.Write([]byte("hi"))

	if w.status() != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.status(), http.StatusCreated)
	}
	if string(w.bufferedBody()) != "hi" {
		t.Fatalf("body = %q", w.bufferedBody())
	}
	if w.mode.Load() == modeFlushed {
		t.Fatalf("mode should still be unset/buffered without a Flush call")
	}
}

func TestBridgeWriterStreaming(t *testing.T) {
	t.Parallel()

	w := newBridgeWriter()
	go func() {
		w.Write([]byte("chunk1"))
		w.Flush()
		w.Write([]byte("chunk2"))
		w.pw.Close()
	}()

	select {
	case mode := <-w.modeCh:
		if mode != modeFlushed {
			t.Fatalf("mode = %d, want modeFlushed", mode)
		}
	}

	buf := make([]byte, 64)
	n, _ := w.pr.Read(buf)
	if string(buf[:n]) != "chunk2" {
		t.Fatalf("streamed body = %q, want %q", buf[:n], "chunk2")
	}
}
