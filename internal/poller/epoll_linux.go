//go:build linux

package poller

import (
	"time"

	"golang.org/x/sys/unix"
)

const readFlags = unix.EPOLLIN | unix.EPOLLRDHUP

type epollPoller struct {
	efd    int
	raw    []unix.EpollEvent
	events []Event
}

// New creates an epoll-backed poller.
func New() (Poller, error) {
	efd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{
		efd:    efd,
		raw:    make([]unix.EpollEvent, maxEvents),
		events: make([]Event, 0, maxEvents),
	}, nil
}

func (p *epollPoller) Watch(fd FD) error {
	ev := &unix.EpollEvent{Events: readFlags, Fd: int32(fd)}
	return unix.EpollCtl(p.efd, unix.EPOLL_CTL_ADD, fd, ev)
}

func (p *epollPoller) Unwatch(fd FD) error {
	return unix.EpollCtl(p.efd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) SetWritable(fd FD, on bool) error {
	var flags uint32 = readFlags
	if on {
		flags |= unix.EPOLLOUT
	}
	ev := &unix.EpollEvent{Events: flags, Fd: int32(fd)}
	return unix.EpollCtl(p.efd, unix.EPOLL_CTL_MOD, fd, ev)
}

func (p *epollPoller) Poll(timeout time.Duration) ([]Event, error) {
	msec := -1
	if timeout >= 0 {
		msec = int(timeout / time.Millisecond)
	}
	n, err := unix.EpollWait(p.efd, p.raw, msec)
	p.events = p.events[:0]
	if err != nil {
		if err == unix.EINTR {
			return p.events, nil
		}
		return nil, err
	}
	for i := 0; i < n; i++ {
		ev := p.raw[i]
		p.events = append(p.events, Event{
			FD:       int(ev.Fd),
			Readable: ev.Events&(unix.EPOLLIN|unix.EPOLLRDHUP|unix.EPOLLHUP) != 0,
			Writable: ev.Events&unix.EPOLLOUT != 0,
			Err:      ev.Events&unix.EPOLLERR != 0,
		})
	}
	return p.events, nil
}

func (p *epollPoller) Close() error {
	return unix.Close(p.efd)
}
