//go:build linux || darwin

package listener

import (
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sys/unix"
)

const backlog = 128

// Listener is a raw listening socket.
type Listener struct {
	fd   int
	port int
}

// Listen binds host:port. An empty host listens on every IPv4 address; port
// zero picks a free port.
func Listen(host string, port int) (*Listener, error) {
	var sa unix.SockaddrInet4
	sa.Port = port
	if host != "" {
		addr, err := net.ResolveTCPAddr("tcp4", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", host, err)
		}
		copy(sa.Addr[:], addr.IP.To4())
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	unix.CloseOnExec(fd)
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setsockopt: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("set nonblock: %w", err)
	}
	if err := unix.Bind(fd, &sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind port %d: %w", port, err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listen: %w", err)
	}
	l := &Listener{fd: fd, port: port}
	if bound, err := unix.Getsockname(fd); err == nil {
		if in4, ok := bound.(*unix.SockaddrInet4); ok {
			l.port = in4.Port
		}
	}
	return l, nil
}

// FD returns the listening descriptor for poller registration.
func (l *Listener) FD() int { return l.fd }

// Port returns the bound port.
func (l *Listener) Port() int { return l.port }

// Accept returns one pending non-blocking connection and its remote host.
func (l *Listener) Accept() (int, string, error) {
	fd, sa, err := accept(l.fd)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return -1, "", ErrWouldBlock
		}
		return -1, "", err
	}
	return fd, remoteHost(sa), nil
}

// Close closes the listening socket.
func (l *Listener) Close() error {
	return unix.Close(l.fd)
}

func remoteHost(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return net.IP(a.Addr[:]).String()
	case *unix.SockaddrInet6:
		return net.IP(a.Addr[:]).String()
	}
	return "unknown"
}
