package httpcore

import "errors"

// Error kinds surfaced by this package. Parse and framing errors are
// contained within one connection and never propagate to other
// connections or the application's receive path. A fatal accept error
// is returned by Server.Serve only: the inbound queue is not closed in
// that case, and Server.Recv and friends do not report it.
var (
	// ErrNoRequest is returned by Server.TryRecv when no request is
	// immediately available.
	ErrNoRequest = errors.New("httpcore: no request available")

	// ErrTimeout is returned by Server.RecvTimeout when no request
	// arrives before the deadline.
	ErrTimeout = errors.New("httpcore: timed out waiting for a request")

	// ErrServerClosed is returned by Recv/TryRecv/RecvTimeout once the
	// server has been unblocked and the inbound queue has drained.
	ErrServerClosed = errors.New("httpcore: server closed")

	// ErrAlreadyResponded is returned by Request.Respond, Request.RespondRaw
	// and Request.Upgrade when a request has already been answered.
	ErrAlreadyResponded = errors.New("httpcore: request already responded to")

	// ErrBodyAlreadyTaken is never returned: a second call to
	// Request.Body returns an empty reader instead. It is kept here for
	// callers that want to distinguish the case explicitly via
	// Request.BodyTaken.
	ErrBodyAlreadyTaken = errors.New("httpcore: request body already taken")

	// ErrBadRequestLine reports a malformed request line.
	ErrBadRequestLine = errors.New("httpcore: malformed request line")

	// ErrBadHeaderLine reports a malformed header field line.
	ErrBadHeaderLine = errors.New("httpcore: malformed header line")

	// ErrHeadersTooLarge reports a header block exceeding the
	// configured bound.
	ErrHeadersTooLarge = errors.New("httpcore: request header block too large")

	// ErrChunkedOnHTTP10 reports a request declaring chunked transfer
	// encoding while negotiating HTTP/1.0, which RFC 7230 forbids.
	ErrChunkedOnHTTP10 = errors.New("httpcore: chunked transfer-encoding is not valid on HTTP/1.0")

	// ErrBadChunkFraming reports a malformed chunk size line or a
	// missing chunk-terminating CRLF.
	ErrBadChunkFraming = errors.New("httpcore: malformed chunked transfer framing")

	// ErrBodyTooLarge is returned by a body reader when the declared
	// or accumulated length would exceed its configured limit.
	ErrBodyTooLarge = errors.New("httpcore: body size exceeds the configured limit")

	// ErrPerIPConnLimit names the Server.MaxConnsPerIP refusal. The
	// accept loop does not return it: a refused connection is closed
	// right after accept.
	ErrPerIPConnLimit = errors.New("httpcore: too many connections from this ip")

	// ErrConcurrencyLimit names the Server.Concurrency refusal. The
	// accept loop does not return it: a refused connection is closed
	// right after accept.
	ErrConcurrencyLimit = errors.New("httpcore: too many concurrent connections")
)
