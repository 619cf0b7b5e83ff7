package httpcore

import (
	"bufio"
	"fmt"
	"io"
)

// bodyKind identifies which body-reader variant a request carries.
type bodyKind int

const (
	bodyEmpty bodyKind = iota
	bodyLengthDelimited
	bodyChunked
	bodyReadUntilClose
)

// newBodyReader builds the plain (not yet notify-wrapped) io.Reader for
// a parsed request, given the framing classifyRequestBody decided on. maxBodySize <= 0 means unlimited.
func newBodyReader(br *bufio.Reader, kind bodyKind, contentLength int64, maxBodySize int64) io.Reader {
	switch kind {
	case bodyEmpty:
		return io.LimitReader(br, 0)
	case bodyLengthDelimited:
		return &equalReader{r: br, remaining: contentLength, limit: maxBodySize}
	case bodyChunked:
		return newChunkedReader(br)
	case bodyReadUntilClose:
		return &limitedUntilCloseReader{r: br, limit: maxBodySize}
	default:
		panic("BUG: unknown bodyKind")
	}
}

// equalReader exposes exactly `remaining` bytes from the underlying
// connection and then returns io.EOF forever, regardless of how many
// more bytes the client actually sent — this is what enforces
// Content-Length framing for request bodies.
type equalReader struct {
	r         io.Reader
	remaining int64
	limit     int64
}

func (e *equalReader) Read(p []byte) (int, error) {
	if e.remaining <= 0 {
		return 0, io.EOF
	}
	if e.limit > 0 && e.remaining > e.limit {
		return 0, ErrBodyTooLarge
	}
	if int64(len(p)) > e.remaining {
		p = p[:e.remaining]
	}
	n, err := e.r.Read(p)
	e.remaining -= int64(n)
	if err == io.EOF && e.remaining > 0 {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// limitedUntilCloseReader reads until the underlying connection is
// closed by the peer (identity transfer with no declared length). Only
// legal for requests negotiating HTTP/1.0 — HTTP/1.1 requests with
// neither Content-Length nor chunked framing have an empty body.
type limitedUntilCloseReader struct {
	r     io.Reader
	limit int64
	read  int64
}

func (u *limitedUntilCloseReader) Read(p []byte) (int, error) {
	if u.limit > 0 && u.read >= u.limit {
		return 0, ErrBodyTooLarge
	}
	if u.limit > 0 && int64(len(p)) > u.limit-u.read {
		p = p[:u.limit-u.read]
	}
	n, err := u.r.Read(p)
	u.read += int64(n)
	return n, err
}

// classifyRequestBody applies RFC 7230's framing rules: a terminal
// "chunked" Transfer-Encoding wins, Content-Length is used otherwise,
// identity-with-no-length is read-until-close on HTTP/1.0 and empty on
// HTTP/1.1 (chunked on HTTP/1.0 is rejected outright as a framing
// error rather than falling back).
func classifyRequestBody(h *Header, major, minor int) (bodyKind, int64, error) {
	if te := h.Get("Transfer-Encoding"); te != "" && isTerminalChunked(te) {
		if major == 1 && minor == 0 {
			return bodyEmpty, 0, ErrChunkedOnHTTP10
		}
		return bodyChunked, -1, nil
	}

	if cl := h.Get("Content-Length"); cl != "" {
		n, err := parseContentLength(cl)
		if err != nil {
			return bodyEmpty, 0, err
		}
		return bodyLengthDelimited, n, nil
	}

	if major == 1 && minor == 0 {
		return bodyReadUntilClose, -1, nil
	}
	return bodyEmpty, 0, nil
}

// isTerminalChunked reports whether the last comma-separated coding in
// a Transfer-Encoding value is "chunked" (RFC 7230 §3.3.1).
func isTerminalChunked(te string) bool {
	last := te
	for i := len(te) - 1; i >= 0; i-- {
		if te[i] == ',' {
			last = te[i+1:]
			break
		}
	}
	return eqFold(trimOWS(last), "chunked")
}

func trimOWS(s string) string {
	i, j := 0, len(s)
	for i < j && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t') {
		j--
	}
	return s[i:j]
}

func parseContentLength(s string) (int64, error) {
	var n int64
	if s == "" {
		return 0, fmt.Errorf("httpcore: empty Content-Length")
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("httpcore: invalid Content-Length %q", s)
		}
		n = n*10 + int64(c-'0')
	}
	return n, nil
}
