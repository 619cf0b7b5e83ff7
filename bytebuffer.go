package httpcore

import "github.com/valyala/bytebufferpool"

var byteBufferPool bytebufferpool.Pool

// acquireByteBuffer returns a pooled, empty growable buffer used for
// staging response header blocks before they hit the socket.
func acquireByteBuffer() *bytebufferpool.ByteBuffer {
	return byteBufferPool.Get()
}

// releaseByteBuffer returns b to the pool. b must not be touched again
// afterwards.
func releaseByteBuffer(b *bytebufferpool.ByteBuffer) {
	byteBufferPool.Put(b)
}
