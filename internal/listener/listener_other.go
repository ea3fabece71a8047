//go:build !linux && !darwin

package listener

import "errors"

var errUnsupported = errors.New("listener: raw sockets are not supported on this platform")

// Listener is unavailable on this platform.
type Listener struct{}

// Listen always fails on this platform.
func Listen(string, int) (*Listener, error) { return nil, errUnsupported }

func (l *Listener) FD() int { return -1 }

func (l *Listener) Port() int { return 0 }

func (l *Listener) Accept() (int, string, error) { return -1, "", errUnsupported }

func (l *Listener) Close() error { return nil }
