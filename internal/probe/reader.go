package probe

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"

	"github.com/cilium/ebpf/ringbuf"
)

// rawEvent mirrors struct tls_event in bpf/tlsmon.c byte for byte; this is
// the wire layout binary.Read decodes every ring buffer record into.
type rawEvent struct {
	Kind        uint8
	_           [3]byte // compiler-inserted padding before the next 4-byte field
	PID         uint32
	TGID        uint32
	_           [4]byte // compiler-inserted padding aligning the next 8-byte field
	TimestampNS uint64
	Handle      uint64
	Len         uint32
	Data        [BUFSIZE]byte
}

// run drains the ring buffer until ctx is canceled or the reader closes,
// decoding each record and publishing it on l.events. Grounded on
// ebpf/openssl/probe.go's run() method, the teacher's real ringbuf read
// loop.
func (l *Loader) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		record, err := l.reader.Read()
		if err != nil {
			if errors.Is(err, ringbuf.ErrClosed) {
				return
			}
			l.enqueueError(err)
			continue
		}

		evt, err := decodeRawEvent(record.RawSample)
		if err != nil {
			l.enqueueError(err)
			continue
		}

		select {
		case l.events <- evt:
		case <-ctx.Done():
			return
		}
	}
}

// decodeRawEvent decodes one ring buffer record into an Event. Split out
// from run so the wire layout can be exercised directly in tests without
// a real ring buffer.
func decodeRawEvent(sample []byte) (Event, error) {
	var raw rawEvent
	if err := binary.Read(bytes.NewReader(sample), binary.LittleEndian, &raw); err != nil {
		return Event{}, err
	}

	return Event{
		Kind:        Kind(raw.Kind),
		PID:         raw.PID,
		TGID:        raw.TGID,
		TimestampNS: raw.TimestampNS,
		Handle:      raw.Handle,
		Len:         raw.Len,
		Data:        raw.Data,
	}, nil
}
