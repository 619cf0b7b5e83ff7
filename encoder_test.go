package httpcore

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func renderResponse(t *testing.T, resp *Response, major, minor int, headOnly, closeRequested bool, srv *Server) (string, bool) {
	t.Helper()
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	closeAfter, err := writeResponse(bw, resp, major, minor, headOnly, closeRequested, srv)
	if err != nil {
		t.Fatalf("writeResponse: %v", err)
	}
	if err := bw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	return buf.String(), closeAfter
}

func TestWriteResponseIdentityFraming(t *testing.T) {
	srv := NewServer()
	resp := NewResponse(200)
	resp.SetBodyBytes([]byte("hello"))

	out, closeAfter := renderResponse(t, resp, 1, 1, false, false, srv)
	if closeAfter {
		t.Fatal("closeAfter should be false for a known-length HTTP/1.1 response")
	}
	if !strings.Contains(out, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("missing status line: %q", out)
	}
	if !strings.Contains(out, "Content-Length: 5\r\n") {
		t.Fatalf("missing Content-Length: %q", out)
	}
	if !strings.HasSuffix(out, "hello") {
		t.Fatalf("missing body: %q", out)
	}
}

func TestWriteResponseChunkedForUnknownLength(t *testing.T) {
	srv := NewServer()
	resp := NewResponse(200)
	resp.SetBodyStream(strings.NewReader("streamed"), -1)

	out, closeAfter := renderResponse(t, resp, 1, 1, false, false, srv)
	if closeAfter {
		t.Fatal("closeAfter should be false: chunked framing is available on HTTP/1.1")
	}
	if !strings.Contains(out, "Transfer-Encoding: chunked\r\n") {
		t.Fatalf("missing Transfer-Encoding: %q", out)
	}
	if !strings.Contains(out, "8\r\nstreamed\r\n0\r\n\r\n") {
		t.Fatalf("body not chunk-encoded: %q", out)
	}
}

func TestWriteResponseForcesCloseOnHTTP10UnknownLength(t *testing.T) {
	srv := NewServer()
	resp := NewResponse(200)
	resp.SetBodyStream(strings.NewReader("streamed"), -1)

	out, closeAfter := renderResponse(t, resp, 1, 0, false, false, srv)
	if !closeAfter {
		t.Fatal("HTTP/1.0 with unknown length must force a close")
	}
	if !strings.Contains(out, "Connection: close\r\n") {
		t.Fatalf("missing Connection: close: %q", out)
	}
}

func TestWriteResponseBodylessStatusOmitsBody(t *testing.T) {
	srv := NewServer()
	resp := NewResponse(204)
	resp.SetBodyBytes([]byte("should not appear"))

	out, _ := renderResponse(t, resp, 1, 1, false, false, srv)
	if strings.Contains(out, "should not appear") {
		t.Fatalf("204 response must not carry a body: %q", out)
	}
	if strings.Contains(out, "Content-Length") {
		t.Fatalf("204 response must not carry Content-Length: %q", out)
	}
}

func TestWriteResponseHeadOmitsBody(t *testing.T) {
	srv := NewServer()
	resp := NewResponse(200)
	resp.SetBodyBytes([]byte("hidden"))

	out, _ := renderResponse(t, resp, 1, 1, true, false, srv)
	if strings.Contains(out, "hidden") {
		t.Fatalf("HEAD response must not carry a body: %q", out)
	}
	if !strings.Contains(out, "Content-Length: 6\r\n") {
		t.Fatalf("HEAD response should still declare Content-Length: %q", out)
	}
}

func TestWriteResponseHTTP10KeepAlive(t *testing.T) {
	srv := NewServer()
	resp := NewResponse(200)
	resp.SetBodyBytes([]byte("ok"))

	out, closeAfter := renderResponse(t, resp, 1, 0, false, false, srv)
	if closeAfter {
		t.Fatal("closeAfter should be false when the caller didn't request a close")
	}
	if !strings.Contains(out, "Connection: keep-alive\r\n") {
		t.Fatalf("missing Connection: keep-alive for HTTP/1.0: %q", out)
	}
}

func TestWriteResponseSkipsReservedHeaders(t *testing.T) {
	srv := NewServer()
	resp := NewResponse(200)
	resp.Header.Set("Content-Length", "999")
	resp.Header.Set("X-Custom", "yes")
	resp.SetBodyBytes([]byte("ok"))

	out, _ := renderResponse(t, resp, 1, 1, false, false, srv)
	if strings.Contains(out, "Content-Length: 999") {
		t.Fatalf("user-set Content-Length should not override the computed framing: %q", out)
	}
	if !strings.Contains(out, "X-Custom: yes\r\n") {
		t.Fatalf("missing custom header: %q", out)
	}
}

func TestWriteResponseUsesServerName(t *testing.T) {
	srv := NewServer()
	srv.Name = "testsrv"
	resp := NewResponse(200)
	resp.SetBodyBytes(nil)

	out, _ := renderResponse(t, resp, 1, 1, false, false, srv)
	if !strings.Contains(out, "Server: testsrv\r\n") {
		t.Fatalf("missing Server header: %q", out)
	}
}
