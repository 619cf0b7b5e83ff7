//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package httpcore

import (
	"net"

	"github.com/valyala/tcplisten"
)

// reuseportListen uses tcplisten for SO_REUSEPORT/TCP_FASTOPEN on the
// platforms it supports.
func reuseportListen(cfg ListenConfig, network, addr string) (net.Listener, error) {
	lc := &tcplisten.Config{
		ReusePort: cfg.Reuseport,
		FastOpen:  cfg.FastOpen,
		Backlog:   cfg.Backlog,
	}
	return lc.NewListener(network, addr)
}
