package conn

import "bytes"

// nextLine extracts the first line from buf. A line is complete at '\n',
// with one preceding '\r' dropped. When no terminator shows up within limit
// bytes the first limit-2 bytes form the line and the whole buffer is
// consumed. ok is false while buf holds only a partial line under the limit.
func nextLine(buf []byte, limit int) (line []byte, consumed int, truncated, ok bool) {
	i := bytes.IndexByte(buf, '\n')
	if i >= 0 && i < limit {
		line = buf[:i]
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		return line, i + 1, false, true
	}
	if i < 0 && len(buf) <= limit {
		return nil, 0, false, false
	}
	return buf[:limit-2], len(buf), true, true
}
