// Package probe owns the kernel-side tracing layer: the eBPF program
// description, the fixed-size event record it publishes, and the
// user-space loader that attaches it and drains its ring buffer.
//
// Grounded on ebpf/openssl/probe.go and ebpf/loader_complete.go (the
// teacher's most complete cilium/ebpf code) and on
// original_source/probes/src/tls_mon/{mod,kernel,user}.rs, which this
// package's semantics mirror exactly.
package probe

import "fmt"

// BUFSIZE bounds the payload carried by every event record. The reference
// implementation targets "under 4k" and lands on 4000 to leave headroom
// for the rest of the fixed-layout record (spec.md §3).
const BUFSIZE = 4000

// Kind identifies which probe produced an event.
type Kind uint8

const (
	KindUnset Kind = iota
	KindNew
	KindWrite
	KindFree
	KindRead
	KindOpenAt
)

func (k Kind) String() string {
	switch k {
	case KindUnset:
		return "Unset"
	case KindNew:
		return "New"
	case KindWrite:
		return "Write"
	case KindFree:
		return "Free"
	case KindRead:
		return "Read"
	case KindOpenAt:
		return "OpenAt"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Event is the fixed-size record every probe fills in and publishes
// through the ring buffer (spec.md §3). All event kinds share this single
// layout so the kernel side can reuse one per-CPU scratch record.
type Event struct {
	Kind        Kind
	PID         uint32
	TGID        uint32
	TimestampNS uint64
	Handle      uint64
	Len         uint32
	Data        [BUFSIZE]byte
}

// Payload returns the event's data, clipped to BUFSIZE and to the
// recorded length. Write events may carry a caller-declared Len larger
// than what was actually copied into Data (spec.md §4.1, §9 open
// question); callers that scan the payload must always go through this
// accessor rather than indexing Data directly.
func (e *Event) Payload() []byte {
	n := int(e.Len)
	if n > BUFSIZE {
		n = BUFSIZE
	}
	if n < 0 {
		n = 0
	}
	return e.Data[:n]
}
