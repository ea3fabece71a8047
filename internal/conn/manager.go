// Package conn turns readiness events into client lines and owns the
// two-phase disconnect lifecycle.
package conn

import (
	"errors"
	"maps"
	"slices"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/vovakirdan/ircserv/internal/core"
	"github.com/vovakirdan/ircserv/internal/listener"
	"github.com/vovakirdan/ircserv/internal/metrics"
	"github.com/vovakirdan/ircserv/internal/poller"
	"golang.org/x/sys/unix"
)

const readChunk = 4096

// Disconnect reasons raised by the manager itself.
const (
	ReasonClosed   = "Connection closed"
	ReasonSendQ    = "SendQ exceeded"
	ReasonShutdown = "Server shutting down"
)

// Handler receives connection lifecycle callbacks on the reactor thread.
type Handler interface {
	OnOpen(c *core.Client)
	OnLine(c *core.Client, line string)
	// OnClose runs during the sweep after the socket is closed and before the
	// client leaves the index.
	OnClose(c *core.Client)
}

// Acceptor is the listening socket.
type Acceptor interface {
	FD() int
	Accept() (int, string, error)
}

// Options tunes buffering.
type Options struct {
	MaxLineLength int
	MaxSendQueue  int
	Clock         clockwork.Clock
	Metrics       *metrics.ConnectionMetrics
}

// Manager accepts connections, reassembles lines, buffers output and sweeps
// disconnects. It is not safe for concurrent use.
type Manager struct {
	loop    poller.Poller
	ln      Acceptor
	clients *core.ClientIndex
	handler Handler
	opts    Options
	log     *zerolog.Logger

	byFD    map[int]core.ClientID
	dirty   map[core.ClientID]struct{}
	waiting map[core.ClientID]struct{}
	pending []core.ClientID
	readBuf []byte
}

// NewManager constructs a manager. The listener descriptor must already be
// watched by loop, or be watched via Start.
func NewManager(loop poller.Poller, ln Acceptor, clients *core.ClientIndex, opts Options, logger *zerolog.Logger) *Manager {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.MaxLineLength <= 2 {
		opts.MaxLineLength = 512
	}
	return &Manager{
		loop:    loop,
		ln:      ln,
		clients: clients,
		opts:    opts,
		log:     logger,
		byFD:    make(map[int]core.ClientID),
		dirty:   make(map[core.ClientID]struct{}),
		waiting: make(map[core.ClientID]struct{}),
		readBuf: make([]byte, readChunk),
	}
}

// SetHandler installs the line consumer. It must be called before the first event.
func (m *Manager) SetHandler(h Handler) { m.handler = h }

// Start registers the listening socket with the poller.
func (m *Manager) Start() error {
	return m.loop.Watch(m.ln.FD())
}

// HandleEvent processes one readiness event.
func (m *Manager) HandleEvent(ev poller.Event) {
	if ev.FD == m.ln.FD() {
		m.acceptAll()
		return
	}
	id, ok := m.byFD[ev.FD]
	if !ok {
		return
	}
	c, ok := m.clients.Get(id)
	if !ok || c.Disconnecting() {
		return
	}
	if ev.Readable || ev.Err {
		m.receive(c)
	}
	if ev.Writable && !c.Disconnecting() {
		m.flushClient(c)
	}
}

func (m *Manager) acceptAll() {
	for {
		fd, host, err := m.ln.Accept()
		if err != nil {
			if !errors.Is(err, listener.ErrWouldBlock) {
				m.log.Warn().Err(err).Msg("accept failed")
			}
			return
		}
		m.Adopt(fd, host)
	}
}

// Adopt registers an already-connected non-blocking socket as a new client.
func (m *Manager) Adopt(fd int, host string) *core.Client {
	if err := m.loop.Watch(fd); err != nil {
		m.log.Warn().Err(err).Int("fd", fd).Msg("watch accepted socket")
		unix.Close(fd)
		return nil
	}
	c := m.clients.Add(fd, host, m.opts.Clock.Now())
	m.byFD[fd] = c.ID
	m.opts.Metrics.Opened()
	m.log.Info().Uint64("client", uint64(c.ID)).Str("host", host).Msg("client connected")
	if m.handler != nil {
		m.handler.OnOpen(c)
	}
	return c
}

// receive drains the socket, then forwards every complete line in arrival order.
func (m *Manager) receive(c *core.Client) {
	eof := false
	for {
		n, err := unix.Read(c.FD, m.readBuf)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				break
			}
			m.MarkForDisconnection(c, "Read error: "+err.Error())
			return
		}
		if n == 0 {
			eof = true
			break
		}
		c.RecvBuf = append(c.RecvBuf, m.readBuf[:n]...)
		m.opts.Metrics.Read(n)
	}
	if len(c.RecvBuf) > 0 {
		c.LastActivity = m.opts.Clock.Now()
	}
	m.drainLines(c)
	if eof {
		m.MarkForDisconnection(c, ReasonClosed)
	}
}

func (m *Manager) drainLines(c *core.Client) {
	for len(c.RecvBuf) > 0 && !c.Disconnecting() {
		line, consumed, truncated, ok := nextLine(c.RecvBuf, m.opts.MaxLineLength)
		if !ok {
			return
		}
		text := string(line)
		c.RecvBuf = c.RecvBuf[consumed:]
		if truncated {
			m.opts.Metrics.Truncated()
			m.log.Debug().Uint64("client", uint64(c.ID)).Int("limit", m.opts.MaxLineLength).Msg("line truncated")
		}
		if m.handler != nil {
			m.handler.OnLine(c, text)
		}
	}
	if len(c.RecvBuf) == 0 {
		c.RecvBuf = nil
	}
}

// Send queues line for the client. Lines to unknown or closed clients are
// dropped. A client whose queue would grow past the limit is marked.
func (m *Manager) Send(id core.ClientID, line string) {
	c, ok := m.clients.Get(id)
	if !ok || c.Closed() {
		return
	}
	if m.opts.MaxSendQueue > 0 && len(c.SendBuf)+len(line)+2 > m.opts.MaxSendQueue {
		m.MarkForDisconnection(c, ReasonSendQ)
		return
	}
	c.SendBuf = append(c.SendBuf, line...)
	c.SendBuf = append(c.SendBuf, '\r', '\n')
	m.dirty[id] = struct{}{}
}

// Flush writes queued output for every client with pending data.
func (m *Manager) Flush() {
	for _, id := range slices.Sorted(maps.Keys(m.dirty)) {
		delete(m.dirty, id)
		if c, ok := m.clients.Get(id); ok && !c.Closed() {
			m.flushClient(c)
		}
	}
}

// flushClient writes until the queue is empty or the socket would block, and
// keeps write interest in step with what remains.
func (m *Manager) flushClient(c *core.Client) {
	for len(c.SendBuf) > 0 {
		n, err := unix.Write(c.FD, c.SendBuf)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				break
			}
			c.SendBuf = nil
			m.MarkForDisconnection(c, "Write error: "+err.Error())
			return
		}
		m.opts.Metrics.Written(n)
		c.SendBuf = c.SendBuf[n:]
	}
	_, waiting := m.waiting[c.ID]
	switch {
	case len(c.SendBuf) > 0 && !waiting:
		if err := m.loop.SetWritable(c.FD, true); err == nil {
			m.waiting[c.ID] = struct{}{}
		}
	case len(c.SendBuf) == 0 && waiting:
		_ = m.loop.SetWritable(c.FD, false)
		delete(m.waiting, c.ID)
	}
	if len(c.SendBuf) == 0 {
		c.SendBuf = nil
	}
}

// MarkForDisconnection queues c for the next sweep. The index is not touched.
func (m *Manager) MarkForDisconnection(c *core.Client, reason string) {
	if !c.MarkDisconnecting(reason) {
		return
	}
	m.pending = append(m.pending, c.ID)
	m.log.Debug().Uint64("client", uint64(c.ID)).Str("reason", reason).Msg("marked for disconnection")
}

// Pending returns the number of clients awaiting the sweep.
func (m *Manager) Pending() int { return len(m.pending) }

// Sweep destroys every marked client: final ERROR line, unwatch, close, the
// handler's OnClose, then removal from the index. Clients marked while
// sweeping are handled in the same call.
func (m *Manager) Sweep() {
	for len(m.pending) > 0 {
		batch := m.pending
		m.pending = nil
		for _, id := range batch {
			m.destroy(id)
		}
	}
}

func (m *Manager) destroy(id core.ClientID) {
	c, ok := m.clients.Get(id)
	if !ok {
		return
	}
	reason := c.QuitReason()
	m.Send(id, "ERROR :Closing Link: "+c.Host+" ("+reason+")")
	m.flushOnce(c)

	if err := m.loop.Unwatch(c.FD); err != nil {
		m.log.Debug().Err(err).Int("fd", c.FD).Msg("unwatch")
	}
	unix.Close(c.FD)
	c.MarkClosed()
	delete(m.byFD, c.FD)
	delete(m.dirty, id)
	delete(m.waiting, id)

	if m.handler != nil {
		m.handler.OnClose(c)
	}
	m.clients.Remove(id)
	m.opts.Metrics.Closed(reason)
	m.log.Info().Uint64("client", uint64(id)).Str("nick", c.Nick).Str("reason", reason).Msg("client disconnected")
}

// flushOnce makes a single best-effort write attempt before close.
func (m *Manager) flushOnce(c *core.Client) {
	if len(c.SendBuf) == 0 {
		return
	}
	if n, err := unix.Write(c.FD, c.SendBuf); err == nil {
		m.opts.Metrics.Written(n)
	}
	c.SendBuf = nil
}

// Shutdown marks every client with the given reason and sweeps them.
func (m *Manager) Shutdown(reason string) {
	m.clients.Each(func(c *core.Client) {
		m.MarkForDisconnection(c, reason)
	})
	m.Sweep()
}
