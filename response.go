package httpcore

import "io"

// Response is the application's description of what to send back for a
// Request. It is a plain value type: build one, fill in the status,
// headers and body, and hand it to Request.Respond.
type Response struct {
	// StatusCode is the HTTP status code, e.g. 200.
	StatusCode int

	// Header holds response header fields. Connection, Content-Length,
	// Transfer-Encoding and Date are computed by the encoder, and any
	// value placed here for those names is not sent, except Connection
	// on a 101 response (as set by Request.Upgrade).
	Header Header

	body       io.Reader
	bodyLength int64 // -1 means unknown length
	closeBody  io.Closer

	// ChunkThreshold overrides the server's default: when the body
	// length is unknown, or known but >= ChunkThreshold, an HTTP/1.1
	// peer gets chunked framing instead of identity. Zero means "use
	// the server's default".
	ChunkThreshold int64
}

// NewResponse returns a Response with an empty body.
func NewResponse(statusCode int) *Response {
	return &Response{StatusCode: statusCode, bodyLength: 0}
}

// SetBodyBytes attaches a fixed, fully-buffered body whose length is
// known up front.
func (r *Response) SetBodyBytes(b []byte) {
	r.body = newByteSliceReader(b)
	r.bodyLength = int64(len(b))
	r.closeBody = nil
}

// SetBodyStream attaches a streamed body. length < 0 means the length
// is unknown ahead of time, forcing chunked framing (or
// connection-close on HTTP/1.0). If body implements io.Closer, it is
// closed once fully written or on abort.
func (r *Response) SetBodyStream(body io.Reader, length int64) {
	r.body = body
	if length < 0 {
		r.bodyLength = -1
	} else {
		r.bodyLength = length
	}
	if c, ok := body.(io.Closer); ok {
		r.closeBody = c
	} else {
		r.closeBody = nil
	}
}

type byteSliceReader struct {
	b []byte
	i int
}

func newByteSliceReader(b []byte) *byteSliceReader { return &byteSliceReader{b: b} }

func (r *byteSliceReader) Read(p []byte) (int, error) {
	if r.i >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.i:])
	r.i += n
	return n, nil
}
