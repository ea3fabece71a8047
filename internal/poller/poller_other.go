//go:build !linux && !darwin

package poller

// New reports that no readiness backend is available on this platform.
func New() (Poller, error) {
	return nil, ErrPlatformNotSupported
}
