package executor

import "bytes"

// LimitedBuffer is an io.Writer that keeps at most a fixed number of
// bytes and discards everything after the cap is reached, while still
// reporting the full write as successful so the producing process is
// never blocked or errored by its own verbosity.
//
// Each captured stream gets its own LimitedBuffer; a single buffer
// must not be shared between concurrent writers.
type LimitedBuffer struct {
	max     int
	buf     bytes.Buffer
	dropped int64
}

// NewLimitedBuffer returns a buffer capped at max bytes. A max of zero
// or less keeps nothing and counts everything as dropped.
func NewLimitedBuffer(max int) *LimitedBuffer {
	return &LimitedBuffer{max: max}
}

// Write stores up to the remaining capacity and silently drops the
// rest. It always reports the full length as written so writers keep
// running.
func (b *LimitedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	remaining := b.max - b.buf.Len()
	if remaining <= 0 {
		b.dropped += int64(n)
		return n, nil
	}
	if n > remaining {
		b.dropped += int64(n - remaining)
		p = p[:remaining]
	}
	b.buf.Write(p)
	return n, nil
}

// String returns the retained leading portion of the stream.
func (b *LimitedBuffer) String() string {
	return b.buf.String()
}

// Len reports how many bytes were retained.
func (b *LimitedBuffer) Len() int {
	return b.buf.Len()
}

// Truncated reports whether any bytes were dropped.
func (b *LimitedBuffer) Truncated() bool {
	return b.dropped > 0
}
