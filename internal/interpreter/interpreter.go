package interpreter

import (
	"github.com/Metrist-Software/ebpf-agent/internal/housekeeping"
	"github.com/Metrist-Software/ebpf-agent/internal/printer"
	"github.com/Metrist-Software/ebpf-agent/internal/probe"
)

// Interpreter maintains the handle map of spec.md §3 and turns probe
// events into stats lines. It is single-owner: HandleEvent and Cleanup
// are meant to be called from one goroutine only, so the handle map
// needs no locking (spec.md §5).
type Interpreter struct {
	sink    Sink
	handles map[uint64]*handle
}

// New builds an interpreter that emits completed transactions to sink.
func New(sink Sink) *Interpreter {
	return &Interpreter{
		sink:    sink,
		handles: make(map[uint64]*handle),
	}
}

// HandleEvent dispatches a single probe event by kind (spec.md §4.4).
// OpenAt events are not handled here; the dispatcher routes those to the
// discovery controller instead.
func (ip *Interpreter) HandleEvent(ev probe.Event) {
	switch ev.Kind {
	case probe.KindNew:
		ip.onNew(ev)
	case probe.KindWrite:
		ip.onWrite(ev)
	case probe.KindRead:
		ip.onRead(ev)
	case probe.KindFree:
		ip.onFree(ev)
	case probe.KindUnset:
		printer.Warningf("interpreter: unexpected event with Unset kind (pid=%d tgid=%d)", ev.PID, ev.TGID)
	}
}

// onNew creates a handle state, overwriting any pre-existing state for
// the same identifier (spec.md §4.4, §9 "reuse after Free is possible
// and correct").
func (ip *Interpreter) onNew(ev probe.Event) {
	ip.handles[ev.Handle] = newHandle(ev.PID)
}

// onWrite updates protocol state; a missing handle is silently ignored
// (spec.md §8 invariant: "Every Write ... without a preceding New ... is
// a no-op").
func (ip *Interpreter) onWrite(ev probe.Event) {
	h, ok := ip.handles[ev.Handle]
	if !ok {
		return
	}

	payload := ev.Payload()

	if isH2Preface(payload) {
		h.promoteToH2()
		return
	}

	if h.isH2 {
		ip.writeH2(h, ev.TimestampNS, payload)
		return
	}

	method, path, host := parseHTTP1(payload)
	h.method, h.path, h.host = method, path, host
	h.startNS = ev.TimestampNS
	h.lastNS = 0
}

func (ip *Interpreter) writeH2(h *handle, ts uint64, payload []byte) {
	fh, ok := parseFrameHeader(payload)
	if !ok || fh.kind != frameHeaders {
		return
	}

	block := payload[frameHeaderLen:]
	if int(fh.length) <= len(block) {
		block = block[:fh.length]
	}

	method, authority, path := decodeHeadersPseudo(h.decoder, block)
	h.streams[fh.streamID] = &requestState{
		method:  method,
		host:    authority,
		path:    path,
		startNS: ts,
		lastNS:  0,
	}
}

// onRead updates last-read timestamps, and for HTTP/2 emits a completed
// stream on END_STREAM (spec.md §4.4). A missing handle is ignored.
func (ip *Interpreter) onRead(ev probe.Event) {
	h, ok := ip.handles[ev.Handle]
	if !ok {
		return
	}

	if !h.isH2 {
		h.lastNS = ev.TimestampNS
		return
	}

	fh, ok := parseFrameHeader(ev.Payload())
	if !ok || fh.streamID == 0 {
		return
	}
	st, ok := h.streams[fh.streamID]
	if !ok {
		return
	}
	st.lastNS = ev.TimestampNS

	if (fh.kind == frameHeaders || fh.kind == frameData) && fh.endStream() {
		ip.emit(st, st.lastNS-st.startNS)
		// The reference agent retains the stream substate after
		// END_STREAM (spec.md §9 open question); we do the same.
	}
}

// onFree emits a final stats record for an in-flight HTTP/1.1 request,
// then always removes the handle (spec.md §4.4).
func (ip *Interpreter) onFree(ev probe.Event) {
	h, ok := ip.handles[ev.Handle]
	if !ok {
		return
	}

	if !h.isH2 && h.startNS > 0 {
		last := h.lastNS
		if last == 0 {
			last = ev.TimestampNS
		}
		ip.emit(&h.requestState, last-h.startNS)
	}

	delete(ip.handles, ev.Handle)
}

func (ip *Interpreter) emit(st *requestState, deltaNS uint64) {
	durationMS := float64(deltaNS) / 1e6
	ip.sink.Emit(st.method, st.host, st.path, durationMS)
}

// Cleanup drops handle states whose owning process directory no longer
// exists (spec.md §4.4, §8 scenario 6).
func (ip *Interpreter) Cleanup() {
	removed := 0
	for key, h := range ip.handles {
		if !housekeeping.ProcessAlive(h.pid) {
			delete(ip.handles, key)
			removed++
		}
	}
	printer.Debugf("interpreter: cleanup removed %d handles, %d remain", removed, len(ip.handles))
}
