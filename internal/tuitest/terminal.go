package tuitest

import (
	"bytes"
	"io"
)

// probe is a terminal query the program may send on startup together with
// the reply a real terminal would give.
type probe struct {
	query []byte
	reply []byte
}

// Termenv and bubbletea ask for the cursor position and the default
// colors before the first render; without answers they stall until their
// own timeouts fire.
var probes = []probe{
	{[]byte("\x1b[6n"), []byte("\x1b[1;1R")},
	{[]byte("\x1b[c"), []byte("\x1b[?62;22c")},
	{[]byte("\x1b]10;?\x07"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x07")},
	{[]byte("\x1b]10;?\x1b\\"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x1b\\")},
	{[]byte("\x1b]11;?\x07"), []byte("\x1b]11;rgb:0000/0000/0000\x07")},
	{[]byte("\x1b]11;?\x1b\\"), []byte("\x1b]11;rgb:0000/0000/0000\x1b\\")},
}

const (
	responderLimit = 256
	responderTail  = 64
)

// responder answers probes written by the program under test.
type responder struct {
	w       io.Writer
	pending []byte
	answers int
}

func newResponder(w io.Writer) *responder {
	return &responder{w: w, pending: make([]byte, 0, responderLimit)}
}

// Process inspects one chunk of program output. A tail of earlier output
// is kept so queries split across reads are still seen.
func (r *responder) Process(chunk []byte) {
	r.pending = append(r.pending, chunk...)
	for r.answerNext() {
	}
	if len(r.pending) > responderLimit {
		r.pending = append(r.pending[:0], r.pending[len(r.pending)-responderTail:]...)
	}
}

// answerNext replies to the earliest pending probe and drops everything
// up to it. It reports whether a probe was found.
func (r *responder) answerNext() bool {
	first, at := -1, -1
	for i, p := range probes {
		idx := bytes.Index(r.pending, p.query)
		if idx >= 0 && (at < 0 || idx < at) {
			first, at = i, idx
		}
	}
	if first < 0 {
		return false
	}
	p := probes[first]
	r.pending = r.pending[at+len(p.query):]
	_, _ = r.w.Write(p.reply)
	r.answers++
	return true
}
