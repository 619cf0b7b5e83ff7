//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package httpcore

import "net"

// reuseportListen falls back to a plain listener on platforms
// tcplisten's socket-option syscalls don't support; Reuseport and
// FastOpen are silently no-ops there, same as the upstream library.
func reuseportListen(cfg ListenConfig, network, addr string) (net.Listener, error) {
	return net.Listen(network, addr)
}
