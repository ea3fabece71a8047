// Package poller wraps the OS readiness multiplexer behind one
// level-triggered interface. The backend is chosen at build time.
package poller

import (
	"errors"
	"time"
)

// FD is a raw file descriptor.
type FD = int

// ErrPlatformNotSupported is returned by New where no backend exists.
var ErrPlatformNotSupported = errors.New("poller: platform not supported (requires epoll or kqueue)")

// Event reports readiness of one descriptor.
type Event struct {
	FD       FD
	Readable bool
	Writable bool
	Err      bool
}

// Poller is a level-triggered readiness set: a descriptor with unread data
// keeps reporting readable until drained. Read interest is always on for
// watched descriptors; write interest is toggled with SetWritable.
type Poller interface {
	Watch(fd FD) error
	Unwatch(fd FD) error
	SetWritable(fd FD, on bool) error
	// Poll waits at most timeout for readiness. The returned slice is reused
	// by the next call. A negative timeout blocks indefinitely.
	Poll(timeout time.Duration) ([]Event, error)
	Close() error
}

const maxEvents = 256
