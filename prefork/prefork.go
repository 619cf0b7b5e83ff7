// Package prefork runs an httpcore.Server across several child
// processes sharing one listening address via SO_REUSEPORT, so the
// kernel load-balances accepted connections across cores without the
// Go runtime having to share memory between them.
package prefork

import (
	"errors"
	"flag"
	"log"
	"net"
	"os"
	"os/exec"
	"runtime"

	"github.com/mholt-labs/httpcore"
)

const (
	preforkChildFlag        = "-prefork-child"
	defaultNetwork          = "tcp4"
	defaultRecoverThreshold = 10
)

// Prefork preforks a master process, with one child per
// GOMAXPROCS, all sharing a single listening address.
//
// WARNING: using prefork prevents the use of any process-global
// state. Things like in-memory caches won't work across children.
type Prefork struct {
	// Network must be "tcp", "tcp4" or "tcp6". Defaults to "tcp4".
	Network string

	// Reuseport selects an SO_REUSEPORT listener in each child
	// instead of sharing a single inherited file descriptor.
	Reuseport bool

	// RecoverThreshold bounds how many times a crashed child is
	// restarted before the master gives up and returns an error.
	RecoverThreshold int

	// ServeFunc serves an already-bound listener; set by New from the
	// wrapped Server, or overridden directly in tests.
	ServeFunc func(ln net.Listener) error

	ln    net.Listener
	files []*os.File
}

func init() {
	// Declared here so a child process invoked with this flag doesn't
	// fail flag.Parse in applications that call it themselves.
	flag.Bool(preforkChildFlag[1:], false, "Is a child process")
}

// IsChild reports whether the current process is a prefork child.
func IsChild() bool {
	for _, arg := range os.Args[1:] {
		if arg == preforkChildFlag {
			return true
		}
	}
	return false
}

// New wraps s to run across preforked child processes.
func New(s *httpcore.Server) *Prefork {
	return &Prefork{
		Network:          defaultNetwork,
		RecoverThreshold: defaultRecoverThreshold,
		ServeFunc:        s.Serve,
	}
}

func (p *Prefork) listen(addr string) (net.Listener, error) {
	runtime.GOMAXPROCS(1)

	if p.Network == "" {
		p.Network = defaultNetwork
	}

	if p.Reuseport {
		cfg := httpcore.ListenConfig{Reuseport: true}
		return cfg.Listen(p.Network, addr)
	}

	return net.FileListener(os.NewFile(3, ""))
}

func (p *Prefork) setTCPListenerFiles(addr string) error {
	if p.Network == "" {
		p.Network = defaultNetwork
	}

	tcpAddr, err := net.ResolveTCPAddr(p.Network, addr)
	if err != nil {
		return err
	}

	ln, err := net.ListenTCP(p.Network, tcpAddr)
	if err != nil {
		return err
	}
	p.ln = ln

	fl, err := ln.File()
	if err != nil {
		return err
	}
	p.files = []*os.File{fl}
	return nil
}

func (p *Prefork) prefork(addr string) (err error) {
	if !p.Reuseport {
		if err = p.setTCPListenerFiles(addr); err != nil {
			return
		}
		defer func() {
			if err == nil {
				err = p.ln.Close()
			}
		}()
	}

	type procSig struct {
		pid int
		err error
	}

	goMaxProcs := runtime.GOMAXPROCS(0)
	sigCh := make(chan procSig, goMaxProcs)
	childProcs := make(map[int]*exec.Cmd)

	defer func() {
		for _, proc := range childProcs {
			_ = proc.Process.Kill()
		}
	}()

	spawn := func() (*exec.Cmd, error) {
		cmd := exec.Command(os.Args[0], append(os.Args[1:], preforkChildFlag)...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.ExtraFiles = p.files
		if err := cmd.Start(); err != nil {
			return nil, err
		}
		return cmd, nil
	}

	for i := 0; i < goMaxProcs; i++ {
		cmd, serr := spawn()
		if serr != nil {
			log.Printf("prefork: failed to start a child process: %v", serr)
			return serr
		}
		childProcs[cmd.Process.Pid] = cmd
		go func() {
			sigCh <- procSig{cmd.Process.Pid, cmd.Wait()}
		}()
	}

	var brokenProcs, completeProcs int
	for sig := range sigCh {
		if sig.err != nil {
			delete(childProcs, sig.pid)
			log.Printf("prefork: a child process exited with error: %v", sig.err)

			if brokenProcs++; brokenProcs > p.RecoverThreshold {
				err = errors.New("prefork: too many child process restarts, giving up")
				break
			}

			cmd, serr := spawn()
			if serr != nil {
				err = serr
				break
			}
			childProcs[cmd.Process.Pid] = cmd
			go func() {
				sigCh <- procSig{cmd.Process.Pid, cmd.Wait()}
			}()
		} else {
			if completeProcs++; completeProcs == goMaxProcs {
				break
			}
		}
	}

	return err
}

// ListenAndServe runs the server across preforked children, or — in a
// child process — binds addr and serves it directly.
func (p *Prefork) ListenAndServe(addr string) error {
	if IsChild() {
		ln, err := p.listen(addr)
		if err != nil {
			return err
		}
		p.ln = ln
		return p.ServeFunc(ln)
	}
	return p.prefork(addr)
}
