// Package iox provides I/O helpers for response bodies and cleanup.
package iox

import (
	"io"
	"strings"
)

// DiscardClose closes c and discards the error.
// Use in defer statements where close errors are unactionable:
//
//	defer iox.DiscardClose(resp.Body)
func DiscardClose(c io.Closer) { _ = c.Close() }

// DrainClose reads rc to the end and closes it so the underlying HTTP
// connection can be reused.
func DrainClose(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, rc)
	_ = rc.Close()
}

// CloseFunc returns a cleanup function that closes c.
// Designed for t.Cleanup registration:
//
//	t.Cleanup(iox.CloseFunc(client))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// Head reads at most n bytes from r and returns them as trimmed text.
// Read errors are ignored; whatever was read is returned.
func Head(r io.Reader, n int64) string {
	var b strings.Builder
	_, _ = io.Copy(&b, io.LimitReader(r, n))
	return strings.TrimSpace(b.String())
}
