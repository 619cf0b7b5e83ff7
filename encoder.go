package httpcore

import (
	"bufio"
	"io"
	"strconv"

	"github.com/valyala/bytebufferpool"
)

// writeResponse serializes resp onto bw for a request negotiated at
// HTTP/major.minor. closeRequested is the caller's own decision to
// close the connection afterwards (e.g. the request carried
// "Connection: close"); writeResponse may additionally force a close
// when the body has no declared length and chunked framing isn't
// available (HTTP/1.0). It returns the final close decision so the
// connection task can act on it.
func writeResponse(bw *bufio.Writer, resp *Response, major, minor int, headOnly bool, closeRequested bool, srv *Server) (closeAfter bool, err error) {
	if resp.closeBody != nil {
		defer resp.closeBody.Close()
	}

	hb := acquireByteBuffer()
	defer releaseByteBuffer(hb)

	reason := ReasonPhrase(resp.StatusCode)
	hb.WriteString(statusLine(major, minor, resp.StatusCode, reason))
	hb.WriteString(crlfStr)

	bodyless := isBodyless(resp.StatusCode)
	closeAfter = closeRequested

	length := resp.bodyLength
	threshold := resp.ChunkThreshold
	if threshold == 0 {
		threshold = srv.chunkThreshold()
	}

	const (
		framingNone = iota
		framingIdentity
		framingChunked
		framingClose
	)
	framing := framingIdentity

	switch {
	case bodyless:
		framing = framingNone
	case major == 1 && minor == 1:
		if length >= 0 && (threshold <= 0 || length < threshold) {
			framing = framingIdentity
		} else {
			framing = framingChunked
		}
	default: // HTTP/1.0 and earlier: no chunked framing available
		if length >= 0 {
			framing = framingIdentity
		} else {
			framing = framingClose
			closeAfter = true
		}
	}

	switch framing {
	case framingIdentity:
		writeHeaderLine(hb, "Content-Length", strconv.FormatInt(length, 10))
	case framingChunked:
		writeHeaderLine(hb, "Transfer-Encoding", "chunked")
	}

	if closeAfter {
		writeHeaderLine(hb, "Connection", "close")
	} else if major == 1 && minor == 0 {
		writeHeaderLine(hb, "Connection", "keep-alive")
	}

	writeHeaderLine(hb, "Date", srv.dates.get())

	wroteServerHeader := false
	for _, f := range resp.Header.All() {
		if isReservedResponseHeader(f.Name) &&
			!(resp.StatusCode == 101 && eqFold(f.Name, "Connection")) {
			continue
		}
		if eqFold(f.Name, "Server") {
			wroteServerHeader = true
		}
		writeHeaderLine(hb, f.Name, f.Value)
	}
	if !wroteServerHeader && srv.Name != "" {
		writeHeaderLine(hb, "Server", srv.Name)
	}

	hb.WriteString(crlfStr)

	if _, err = bw.Write(hb.B); err != nil {
		return closeAfter, err
	}

	if bodyless || headOnly || resp.body == nil {
		return closeAfter, nil
	}

	switch framing {
	case framingIdentity:
		if length > 0 {
			_, err = io.CopyN(bw, resp.body, length)
		}
	case framingChunked:
		cw := newChunkedWriter(bw)
		if _, err = io.Copy(cw, resp.body); err == nil {
			err = cw.Close()
		}
	case framingClose:
		_, err = io.Copy(bw, resp.body)
	}
	return closeAfter, err
}

func writeHeaderLine(hb *bytebufferpool.ByteBuffer, name, value string) {
	hb.WriteString(name)
	hb.WriteString(": ")
	hb.WriteString(value)
	hb.WriteString(crlfStr)
}

func isReservedResponseHeader(name string) bool {
	switch {
	case eqFold(name, "Content-Length"),
		eqFold(name, "Transfer-Encoding"),
		eqFold(name, "Connection"),
		eqFold(name, "Date"):
		return true
	}
	return false
}

const crlfStr = "\r\n"
