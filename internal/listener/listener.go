// Package listener opens the non-blocking TCP listening socket the reactor
// accepts connections from.
package listener

import "errors"

// ErrWouldBlock is returned by Accept when no connection is pending.
var ErrWouldBlock = errors.New("listener: accept would block")
