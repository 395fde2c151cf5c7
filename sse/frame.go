// Package sse decodes the agent stream's event frames.
//
// The stream is text: frames are separated by a blank line, and each frame
// carries one "data:" line whose payload is either a JSON event object or the
// termination sentinel. Transport chunks have no alignment with frames or
// even with UTF-8 sequences, so the decoder is incremental.
package sse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/pithecene-io/docent/types"
)

// Wire constants of the agent stream.
const (
	// DataMarker prefixes the payload line of a frame.
	DataMarker = "data:"
	// Sentinel is the payload literal that ends the logical answer.
	Sentinel = "[DONE]"
	// Delimiter separates frames.
	Delimiter = "\n\n"
)

// DefaultMaxFrameSize bounds the text buffered for a single frame.
const DefaultMaxFrameSize = 1 << 20

var delimiter = []byte(Delimiter)

// FrameErrorKind classifies frames that produced no event.
type FrameErrorKind int

const (
	// FrameErrorNoMarker indicates a frame without a data line.
	FrameErrorNoMarker FrameErrorKind = iota
	// FrameErrorDecode indicates a payload that is not a JSON event object.
	FrameErrorDecode
	// FrameErrorUnknownType indicates a JSON payload with an unrecognized type.
	FrameErrorUnknownType
	// FrameErrorDiscarded indicates a frame that arrived after the sentinel.
	FrameErrorDiscarded
	// FrameErrorUnflushed indicates text left in the buffer when the stream ended.
	FrameErrorUnflushed
	// FrameErrorOversize indicates a frame longer than the decoder's size limit.
	FrameErrorOversize
)

// String returns the metric/log label of the kind.
func (k FrameErrorKind) String() string {
	switch k {
	case FrameErrorNoMarker:
		return "no_marker"
	case FrameErrorDecode:
		return "decode"
	case FrameErrorUnknownType:
		return "unknown_type"
	case FrameErrorDiscarded:
		return "discarded"
	case FrameErrorUnflushed:
		return "unflushed"
	case FrameErrorOversize:
		return "oversize"
	default:
		return "unknown"
	}
}

// FrameError describes a dropped frame.
// Drops are never returned to callers; they are only reported to the
// decoder's diagnostic sink.
type FrameError struct {
	Kind  FrameErrorKind
	Msg   string
	Frame string
	Err   error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsDecodeError returns true if err is a FrameError for a malformed payload.
func IsDecodeError(err error) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.Kind == FrameErrorDecode
	}
	return false
}

// DiagnosticFunc receives every dropped frame.
type DiagnosticFunc func(*FrameError)

// DecoderOption configures a FrameDecoder.
type DecoderOption func(*FrameDecoder)

// WithDiagnostics routes dropped frames to fn.
func WithDiagnostics(fn DiagnosticFunc) DecoderOption {
	return func(d *FrameDecoder) {
		d.diag = fn
	}
}

// WithMaxFrameSize sets the frame size limit. Zero or less disables it.
func WithMaxFrameSize(n int) DecoderOption {
	return func(d *FrameDecoder) {
		d.maxFrame = n
	}
}

// FrameDecoder turns raw stream chunks into events.
// It is not safe for concurrent use; one session owns one decoder.
type FrameDecoder struct {
	text     transform.Transformer
	carry    []byte // incomplete trailing UTF-8 sequence
	pending  []byte // text not yet closed into a frame
	scanned  int    // prefix of pending known to hold no delimiter
	skipping bool   // inside an oversize frame
	maxFrame int
	done     bool
	diag     DiagnosticFunc
}

// NewFrameDecoder creates a new frame decoder.
func NewFrameDecoder(opts ...DecoderOption) *FrameDecoder {
	d := &FrameDecoder{
		text:     unicode.UTF8.NewDecoder(),
		maxFrame: DefaultMaxFrameSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Feed consumes one transport chunk and returns the events of every frame
// the chunk completed, in arrival order.
//
// Once the sentinel is seen the decoder is finished: the rest of the chunk
// and every later chunk are discarded. A frame that outgrows the size limit
// is dropped up to its delimiter.
func (d *FrameDecoder) Feed(chunk []byte) []types.Event {
	if d.done {
		if len(chunk) > 0 {
			d.report(FrameErrorDiscarded, "chunk after sentinel", string(chunk), nil)
		}
		return nil
	}

	d.pending = append(d.pending, d.decodeText(chunk)...)

	var events []types.Event
	for {
		i := bytes.Index(d.pending[d.scanned:], delimiter)
		if i < 0 {
			// Only the tail can still begin a delimiter.
			d.scanned = max(len(d.pending)-len(delimiter)+1, 0)
			break
		}
		end := d.scanned + i
		frame := string(d.pending[:end])
		d.pending = d.pending[end+len(delimiter):]
		d.scanned = 0

		if d.skipping {
			d.skipping = false
			continue
		}
		event, ok := d.decodeFrame(frame)
		if !ok {
			continue
		}
		events = append(events, event)
		if event.Type == types.EventTypeDone {
			d.finishAfterSentinel()
			return events
		}
	}

	if d.maxFrame > 0 && len(d.pending) > d.maxFrame {
		if !d.skipping {
			d.report(FrameErrorOversize, fmt.Sprintf("frame exceeds %d bytes", d.maxFrame),
				string(d.pending[:min(len(d.pending), 256)]), nil)
			d.skipping = true
		}
		// Keep what may be the first half of the closing delimiter.
		keep := len(delimiter) - 1
		d.pending = append(d.pending[:0], d.pending[len(d.pending)-keep:]...)
		d.scanned = 0
	}
	return events
}

// Finish marks the end of the transport stream. Text that never reached a
// delimiter is discarded without producing an event.
func (d *FrameDecoder) Finish() {
	if d.done {
		return
	}
	rest := string(d.pending) + string(d.carry)
	if rest != "" && !d.skipping {
		d.report(FrameErrorUnflushed, "stream ended inside a frame", rest, nil)
	}
	d.reset()
}

// Pending returns the buffered text that has not formed a frame yet.
func (d *FrameDecoder) Pending() string {
	return string(d.pending)
}

// Done returns true after the sentinel was seen or Finish was called.
func (d *FrameDecoder) Done() bool {
	return d.done
}

func (d *FrameDecoder) reset() {
	d.pending = nil
	d.carry = nil
	d.scanned = 0
	d.skipping = false
	d.done = true
}

// decodeText converts chunk to text, holding back an incomplete trailing
// multi-byte sequence until the next chunk arrives.
func (d *FrameDecoder) decodeText(chunk []byte) string {
	src := append(d.carry, chunk...)
	d.carry = nil

	var out strings.Builder
	// Invalid bytes expand to U+FFFD (3 bytes each).
	dst := make([]byte, 3*len(src)+4)
	for len(src) > 0 {
		nDst, nSrc, err := d.text.Transform(dst, src, false)
		out.Write(dst[:nDst])
		src = src[nSrc:]
		if errors.Is(err, transform.ErrShortSrc) {
			d.carry = append([]byte(nil), src...)
			break
		}
		if err != nil && !errors.Is(err, transform.ErrShortDst) {
			// The UTF-8 decoder replaces invalid input instead of failing.
			break
		}
		if nSrc == 0 && nDst == 0 {
			d.carry = append([]byte(nil), src...)
			break
		}
	}
	return out.String()
}

// decodeFrame derives at most one event from a frame.
func (d *FrameDecoder) decodeFrame(frame string) (types.Event, bool) {
	payload, ok := extractPayload(frame)
	if !ok {
		if frame != "" {
			d.report(FrameErrorNoMarker, "frame has no data line", frame, nil)
		}
		return types.Event{}, false
	}

	if payload == Sentinel {
		return types.DoneEvent(), true
	}

	var event types.Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		d.report(FrameErrorDecode, "failed to decode event payload", frame, err)
		return types.Event{}, false
	}
	if !event.Type.IsWire() {
		d.report(FrameErrorUnknownType, fmt.Sprintf("unknown event type %q", event.Type), frame, nil)
		return types.Event{}, false
	}
	return event.Normalize(), true
}

// finishAfterSentinel drops everything that followed the sentinel.
func (d *FrameDecoder) finishAfterSentinel() {
	parts := strings.Split(string(d.pending), Delimiter)
	for _, frame := range parts[:len(parts)-1] {
		if frame != "" {
			d.report(FrameErrorDiscarded, "frame after sentinel", frame, nil)
		}
	}
	if last := parts[len(parts)-1]; last != "" {
		d.report(FrameErrorDiscarded, "buffered text after sentinel", last, nil)
	}
	d.reset()
}

func (d *FrameDecoder) report(kind FrameErrorKind, msg, frame string, err error) {
	if d.diag == nil {
		return
	}
	d.diag(&FrameError{Kind: kind, Msg: msg, Frame: frame, Err: err})
}

// extractPayload finds the first data line of a frame and returns its
// payload with the marker and surrounding whitespace removed.
func extractPayload(frame string) (string, bool) {
	for _, line := range strings.Split(frame, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(line, DataMarker) {
			return strings.TrimSpace(line[len(DataMarker):]), true
		}
	}
	return "", false
}
