package probe

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestDecodeRawEvent(t *testing.T) {
	var raw rawEvent
	raw.Kind = uint8(KindWrite)
	raw.PID = 111
	raw.TGID = 222
	raw.TimestampNS = 1_234_567_890
	raw.Handle = 0xDEADBEEF
	raw.Len = 5
	copy(raw.Data[:], "hello")

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &raw); err != nil {
		t.Fatalf("binary.Write: %v", err)
	}

	evt, err := decodeRawEvent(buf.Bytes())
	if err != nil {
		t.Fatalf("decodeRawEvent: %v", err)
	}

	if evt.Kind != KindWrite || evt.PID != 111 || evt.TGID != 222 ||
		evt.TimestampNS != 1_234_567_890 || evt.Handle != 0xDEADBEEF || evt.Len != 5 {
		t.Fatalf("unexpected decoded event: %+v", evt)
	}
	if string(evt.Payload()) != "hello" {
		t.Fatalf("Payload() = %q, want %q", evt.Payload(), "hello")
	}
}

func TestDecodeRawEventTruncatedSample(t *testing.T) {
	if _, err := decodeRawEvent([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected a short sample to fail to decode")
	}
}
