// Package interpreter maintains per-TLS-handle state and turns the
// plaintext observed around the TLS boundary into completed-transaction
// stats lines. Grounded on original_source/src/event_listener.rs, whose
// Handle struct and New/Write/Read/Free state machine this package
// mirrors in Go idiom (one map, no locks: it is driven by a single
// goroutine per spec.md §5).
package interpreter

import "golang.org/x/net/http2/hpack"

// hpackTableSize is the bound on HPACK dynamic-table capacity; kept
// identical to the reference agent (spec.md §3, §5).
const hpackTableSize = 2048

// requestState holds the fields recorded for either an HTTP/1.1 handle or
// a single HTTP/2 stream (spec.md §3's "Handle state").
type requestState struct {
	startNS uint64
	lastNS  uint64
	method  string
	host    string
	path    string
}

// handle is the per-TLS-session state created on New and removed on Free.
type handle struct {
	pid uint32

	isH2 bool

	// Valid when !isH2.
	requestState

	// Valid when isH2.
	streams map[uint32]*requestState
	decoder *hpack.Decoder
}

func newHandle(pid uint32) *handle {
	return &handle{pid: pid}
}

// promoteToH2 marks the handle HTTP/2 and lazily creates its stream map
// and HPACK decoder. Called at most meaningfully once per handle, but
// idempotent because a repeated preface would otherwise reset state.
func (h *handle) promoteToH2() {
	if h.isH2 {
		return
	}
	h.isH2 = true
	h.streams = make(map[uint32]*requestState)
	h.decoder = hpack.NewDecoder(hpackTableSize, nil)
}
