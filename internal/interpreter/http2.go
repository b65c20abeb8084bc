package interpreter

import "golang.org/x/net/http2/hpack"

// h2Preface is the literal 24-byte HTTP/2 connection preface (spec.md
// §4.4, §9 glossary).
var h2Preface = []byte("PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n")

// isH2Preface reports whether payload's leading 24 bytes exactly equal
// the HTTP/2 connection preface (spec.md §8 invariant).
func isH2Preface(payload []byte) bool {
	return len(payload) >= len(h2Preface) && string(payload[:len(h2Preface)]) == string(h2Preface)
}

// frameKind mirrors the subset of HTTP/2 frame types this interpreter
// cares about (spec.md §9: "only the frame header ... and HPACK-decoded
// pseudo-headers from HEADERS frames are required").
type frameKind uint8

const (
	frameData    frameKind = 0x0
	frameHeaders frameKind = 0x1
)

const flagEndStream = 0x1

// frameHeader is the 9-byte prefix of every HTTP/2 frame: 24-bit length,
// 8-bit type, 8-bit flags, 1 reserved bit + 31-bit stream id.
type frameHeader struct {
	length   uint32
	kind     frameKind
	flags    uint8
	streamID uint32
}

const frameHeaderLen = 9

// parseFrameHeader decodes the 9-byte frame header prefix of payload. ok
// is false if payload is too short to contain one.
func parseFrameHeader(payload []byte) (frameHeader, bool) {
	if len(payload) < frameHeaderLen {
		return frameHeader{}, false
	}
	length := uint32(payload[0])<<16 | uint32(payload[1])<<8 | uint32(payload[2])
	kind := frameKind(payload[3])
	flags := payload[4]
	streamID := (uint32(payload[5])<<24 | uint32(payload[6])<<16 | uint32(payload[7])<<8 | uint32(payload[8])) & 0x7FFFFFFF
	return frameHeader{length: length, kind: kind, flags: flags, streamID: streamID}, true
}

func (f frameHeader) endStream() bool {
	return f.flags&flagEndStream == flagEndStream
}

// decodeHeadersPseudo HPACK-decodes a HEADERS frame's header block (the
// payload after the frame header, which the caller clips to the frame's
// declared length when the payload holds that many bytes) and extracts the
// :method, :authority, :path pseudo-headers (spec.md §4.4).
func decodeHeadersPseudo(decoder *hpack.Decoder, block []byte) (method, authority, path string) {
	fields, err := decoder.DecodeFull(block)
	if err != nil {
		// A partial or malformed header block is dropped silently, same
		// as any other unrecognized Write payload (spec.md §7).
		return "", "", ""
	}
	for _, f := range fields {
		switch f.Name {
		case ":method":
			method = f.Value
		case ":authority":
			authority = f.Value
		case ":path":
			path = f.Value
		}
	}
	return method, authority, path
}
