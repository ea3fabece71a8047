//go:build darwin

package poller

import (
	"time"

	"golang.org/x/sys/unix"
)

type kqueuePoller struct {
	kq     int
	raw    []unix.Kevent_t
	events []Event
}

// New creates a kqueue-backed poller. Filters are registered without
// EV_CLEAR so readiness stays level-triggered.
func New() (Poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)
	return &kqueuePoller{
		kq:     kq,
		raw:    make([]unix.Kevent_t, maxEvents),
		events: make([]Event, 0, maxEvents),
	}, nil
}

func (p *kqueuePoller) change(fd FD, filter int16, flags uint16) error {
	var kev unix.Kevent_t
	unix.SetKevent(&kev, fd, int(filter), int(flags))
	_, err := unix.Kevent(p.kq, []unix.Kevent_t{kev}, nil, nil)
	return err
}

func (p *kqueuePoller) Watch(fd FD) error {
	return p.change(fd, unix.EVFILT_READ, unix.EV_ADD)
}

func (p *kqueuePoller) Unwatch(fd FD) error {
	err := p.change(fd, unix.EVFILT_READ, unix.EV_DELETE)
	// The write filter is only present while output is pending.
	_ = p.change(fd, unix.EVFILT_WRITE, unix.EV_DELETE)
	return err
}

func (p *kqueuePoller) SetWritable(fd FD, on bool) error {
	if on {
		return p.change(fd, unix.EVFILT_WRITE, unix.EV_ADD)
	}
	err := p.change(fd, unix.EVFILT_WRITE, unix.EV_DELETE)
	if err == unix.ENOENT {
		return nil
	}
	return err
}

func (p *kqueuePoller) Poll(timeout time.Duration) ([]Event, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}
	n, err := unix.Kevent(p.kq, nil, p.raw, ts)
	p.events = p.events[:0]
	if err != nil {
		if err == unix.EINTR {
			return p.events, nil
		}
		return nil, err
	}
	for i := 0; i < n; i++ {
		kev := p.raw[i]
		ev := Event{FD: int(kev.Ident)}
		switch {
		case kev.Flags&unix.EV_ERROR != 0:
			ev.Err = true
		case kev.Filter == unix.EVFILT_READ:
			ev.Readable = true
		case kev.Filter == unix.EVFILT_WRITE:
			ev.Writable = true
		}
		p.events = append(p.events, ev)
	}
	return p.events, nil
}

func (p *kqueuePoller) Close() error {
	return unix.Close(p.kq)
}
