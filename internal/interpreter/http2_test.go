package interpreter

import "testing"

func TestIsH2Preface(t *testing.T) {
	if !isH2Preface([]byte("PRI * HTTP/2.0\r\n\r\nSM\r\n\r\nextra")) {
		t.Fatal("expected exact preface prefix to match")
	}
	if isH2Preface([]byte("PRI * HTTP/2.0\r\n\r\nSM\r\n\r")) {
		t.Fatal("expected a 23-byte prefix not to match")
	}
	if isH2Preface([]byte("GET / HTTP/1.1\r\n\r\n")) {
		t.Fatal("expected an HTTP/1.1 request line not to match")
	}
}

func TestParseFrameHeader(t *testing.T) {
	raw := frameHeaderBytes(0x010203, frameHeaders, flagEndStream, 0x7FFFFFFF)
	fh, ok := parseFrameHeader(raw)
	if !ok {
		t.Fatal("expected a parseable frame header")
	}
	if fh.length != 0x010203 {
		t.Fatalf("length = %#x, want %#x", fh.length, 0x010203)
	}
	if fh.kind != frameHeaders {
		t.Fatalf("kind = %v, want frameHeaders", fh.kind)
	}
	if !fh.endStream() {
		t.Fatal("expected END_STREAM to be set")
	}
	if fh.streamID != 0x7FFFFFFF {
		t.Fatalf("streamID = %#x, want %#x", fh.streamID, 0x7FFFFFFF)
	}
}

func TestParseFrameHeaderMasksReservedBit(t *testing.T) {
	raw := frameHeaderBytes(0, frameData, 0, 1)
	// Set the reserved top bit; it must not leak into streamID.
	raw[5] |= 0x80
	fh, ok := parseFrameHeader(raw)
	if !ok {
		t.Fatal("expected a parseable frame header")
	}
	if fh.streamID != 1 {
		t.Fatalf("streamID = %d, want 1 (reserved bit must be masked)", fh.streamID)
	}
}

func TestParseFrameHeaderTooShort(t *testing.T) {
	if _, ok := parseFrameHeader(make([]byte, 8)); ok {
		t.Fatal("expected a short buffer to fail to parse")
	}
}
