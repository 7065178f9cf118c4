// Package codec implements the wire framing for the three output
// protocols this bridge speaks: AdaLight, AWA (HyperSerial), and WLED
// (AdaLight framing plus a baud-negotiation prelude, see wled.go).
//
// Grounded on spec.md §4.7/§4.8. The teacher repo has no equivalent —
// samoyed's framing layer (kiss_frame.go) escapes a FEND-delimited
// stream rather than emitting fixed-size-header binary frames — so the
// shape here (a fixed-size header array, big-endian counts packed by
// hand, a checksum byte) instead follows the byte-oriented framing style
// of other_examples' RTP/KCP/modbus framers in the retrieval pack
// (e.g. rolfl-modbus's rtu.go CRC-trailer pattern), adapted to AdaLight's
// fixed 6-byte header instead of a variable trailer.
package codec

import "fmt"

// HeaderLen is the size in bytes of the AdaLight/AWA/WLED frame header:
// 3 magic bytes, 2 big-endian count bytes, 1 checksum byte.
const HeaderLen = 6

var adaMagic = [3]byte{'A', 'd', 'a'}

// EncodeAdaLight builds a complete AdaLight frame for ledCount pixels
// with the given wire payload (already pixel-transformed; its length
// must equal ledCount * stride for whatever pixel_format the output
// uses — this package does not know about pixel_format).
//
// The count field is ledCount-1, not ledCount: spec.md §4.7 calls this
// "critical" because an off-by-one here desyncs the receiver and, for
// WLED, can make a later payload byte land in the single-byte baud
// control channel.
func EncodeAdaLight(ledCount int, payload []byte) ([]byte, error) {
	header, err := adaLightHeader(adaMagic, ledCount)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, HeaderLen+len(payload))
	copy(frame, header[:])
	copy(frame[HeaderLen:], payload)
	return frame, nil
}

// DecodeAdaLight parses a frame produced by EncodeAdaLight (or an
// AWA frame's header, which shares the layout), returning the decoded
// led count and the payload slice (aliasing frame's backing array).
//
// This exists for the round-trip law in spec.md §8:
// "Decode(Encode(frame, AdaLight)) recovers led_count and RGB payload
// exactly."
func DecodeAdaLight(frame []byte) (ledCount int, payload []byte, err error) {
	if len(frame) < HeaderLen {
		return 0, nil, fmt.Errorf("codec: frame too short: %d bytes", len(frame))
	}
	if frame[0] != adaMagic[0] || frame[1] != adaMagic[1] || frame[2] != adaMagic[2] {
		return 0, nil, fmt.Errorf("codec: bad magic %q", frame[0:3])
	}
	hi, lo := frame[3], frame[4]
	if want := checksum(hi, lo); frame[5] != want {
		return 0, nil, fmt.Errorf("codec: checksum mismatch: got 0x%02x, want 0x%02x", frame[5], want)
	}
	ledCount = int(hi)<<8 | int(lo) + 1
	return ledCount, frame[HeaderLen:], nil
}

// adaLightHeader builds the shared 6-byte header used by AdaLight and
// AWA frames: magic, (ledCount-1) big-endian, XOR checksum.
func adaLightHeader(magic [3]byte, ledCount int) ([HeaderLen]byte, error) {
	var header [HeaderLen]byte
	if ledCount < 1 {
		return header, fmt.Errorf("codec: ledCount must be >= 1, got %d", ledCount)
	}
	count := ledCount - 1
	if count > 0xFFFF {
		return header, fmt.Errorf("codec: ledCount %d too large to encode", ledCount)
	}
	header[0], header[1], header[2] = magic[0], magic[1], magic[2]
	header[3] = byte(count >> 8)
	header[4] = byte(count)
	header[5] = checksum(header[3], header[4])
	return header, nil
}

// checksum implements spec.md §4.7/§8: header[5] = header[3] XOR
// header[4] XOR 0x55.
func checksum(hi, lo byte) byte {
	return hi ^ lo ^ 0x55
}
