package httpcore

import "net"

// ListenConfig controls how Listen creates the server's listening
// socket. The zero value is a plain net.Listen.
type ListenConfig struct {
	// Reuseport enables SO_REUSEPORT, letting multiple processes (see
	// package prefork) bind the same address and have the kernel load
	// balance accepted connections across them. Only honored on the
	// platforms tcplisten supports; see listener_unix.go.
	Reuseport bool

	// FastOpen enables TCP_FASTOPEN, letting repeat clients send their
	// first request alongside the SYN.
	FastOpen bool

	// Backlog is the listen() backlog size. Zero uses the platform
	// default.
	Backlog int
}

// Listen creates a listener for network/addr ("tcp", "host:port")
// honoring cfg. With both Reuseport and FastOpen left false this is
// exactly net.Listen.
func (cfg ListenConfig) Listen(network, addr string) (net.Listener, error) {
	if !cfg.Reuseport && !cfg.FastOpen {
		return net.Listen(network, addr)
	}
	return reuseportListen(cfg, network, addr)
}

// ListenAndServeWithConfig is like Server.ListenAndServe but creates
// the listener via cfg first, so SO_REUSEPORT/TCP_FASTOPEN can be
// used.
func (s *Server) ListenAndServeWithConfig(addr string, cfg ListenConfig) error {
	ln, err := cfg.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}
