package httpcore

import (
	"bufio"
	"strings"
	"testing"
)

func TestHeaderSetAddDel(t *testing.T) {
	var h Header
	h.Add("X-Foo", "1")
	h.Add("X-Foo", "2")
	if got := h.Values("x-foo"); len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Fatalf("Values = %v", got)
	}

	h.Set("X-Foo", "3")
	if got := h.Values("X-Foo"); len(got) != 1 || got[0] != "3" {
		t.Fatalf("Values after Set = %v", got)
	}

	h.Del("x-foo")
	if h.Has("X-Foo") {
		t.Fatal("header still present after Del")
	}
}

func TestReadRequestLine(t *testing.T) {
	br := bufio.NewReader(strings.NewReader("GET /foo HTTP/1.1\r\n"))
	rl, err := readRequestLine(br)
	if err != nil {
		t.Fatalf("readRequestLine: %v", err)
	}
	if rl.method != "GET" || rl.target != "/foo" || rl.major != 1 || rl.minor != 1 {
		t.Fatalf("got %+v", rl)
	}
	if rl.noHTTP11 {
		t.Fatal("noHTTP11 should be false for HTTP/1.1")
	}
}

func TestReadRequestLineRejectsExtraWhitespace(t *testing.T) {
	cases := []string{
		"GET  /foo HTTP/1.1\r\n",
		"GET /foo  HTTP/1.1\r\n",
		"GET\r\n",
	}
	for _, c := range cases {
		br := bufio.NewReader(strings.NewReader(c))
		if _, err := readRequestLine(br); err == nil {
			t.Errorf("readRequestLine(%q) = nil error, want error", c)
		}
	}
}

func TestReadHeadersObsFold(t *testing.T) {
	raw := "X-Foo: bar\r\n  baz\r\nX-Other: 1\r\n\r\n"
	br := bufio.NewReader(strings.NewReader(raw))
	var h Header
	if err := readHeaders(br, &h, 0, 0); err != nil {
		t.Fatalf("readHeaders: %v", err)
	}
	if got := h.Get("X-Foo"); got != "bar baz" {
		t.Fatalf("X-Foo = %q, want %q", got, "bar baz")
	}
	if got := h.Get("X-Other"); got != "1" {
		t.Fatalf("X-Other = %q", got)
	}
}

func TestReadHeadersRejectsBadName(t *testing.T) {
	raw := "Bad Name: x\r\n\r\n"
	br := bufio.NewReader(strings.NewReader(raw))
	var h Header
	if err := readHeaders(br, &h, 0, 0); err == nil {
		t.Fatal("expected error for invalid header name")
	}
}

func TestReadHeadersEnforcesMaxBytes(t *testing.T) {
	raw := "X-Foo: " + strings.Repeat("a", 100) + "\r\n\r\n"
	br := bufio.NewReader(strings.NewReader(raw))
	var h Header
	if err := readHeaders(br, &h, 16, 0); err != ErrHeadersTooLarge {
		t.Fatalf("err = %v, want ErrHeadersTooLarge", err)
	}
}

func TestParseHTTPVersion(t *testing.T) {
	major, minor, ok := parseHTTPVersion([]byte("HTTP/1.0"))
	if !ok || major != 1 || minor != 0 {
		t.Fatalf("got %d.%d ok=%v", major, minor, ok)
	}
	if _, _, ok := parseHTTPVersion([]byte("HTTP/11")); ok {
		t.Fatal("expected rejection of malformed version")
	}
}
