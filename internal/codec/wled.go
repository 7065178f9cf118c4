package codec

import "bytes"

// WLEDState is one state of the baud-negotiation state machine from
// spec.md §4.8: Opening -> Probing -> Switching -> Running -> Error (->
// Opening). The decision logic here is pure (no I/O); internal/output's
// serial worker drives it and performs the actual reads/writes.
type WLEDState int

const (
	WLEDOpening WLEDState = iota
	WLEDProbing
	WLEDSwitching
	WLEDRunning
	WLEDError
)

func (s WLEDState) String() string {
	switch s {
	case WLEDOpening:
		return "opening"
	case WLEDProbing:
		return "probing"
	case WLEDSwitching:
		return "switching"
	case WLEDRunning:
		return "running"
	case WLEDError:
		return "error"
	default:
		return "unknown"
	}
}

// WLEDProbeMessage is the JSON info query sent once the handshake baud
// is open (spec.md §4.8, §6).
const WLEDProbeMessage = "{\"v\":true}\n"

// DefaultHandshakeBaud is used when an output config omits
// handshake_baud_rate (spec.md §3 OutputConfig).
const DefaultHandshakeBaud = 115200

// LooksLikeWLEDResponse reports whether a probe response buffer
// self-identifies as WLED firmware. WLED's {"v":true} reply is a JSON
// object that includes version/architecture fields; spec.md §4.8 asks
// only to "parse just enough to confirm", not fully decode it.
func LooksLikeWLEDResponse(buf []byte) bool {
	for _, marker := range [][]byte{[]byte(`"ver"`), []byte(`"arch"`), []byte(`"brand"`), []byte(`"leds"`)} {
		if bytes.Contains(buf, marker) {
			return true
		}
	}
	return false
}

// baudCommand maps a target baud rate to WLED's single-byte baud-change
// command (spec.md §4.8 table). Sent only in idle, never mid-frame.
var baudCommand = map[int]byte{
	115200:  0xB0,
	230400:  0xB1,
	460800:  0xB2,
	500000:  0xB3,
	576000:  0xB4,
	921600:  0xB5,
	1000000: 0xB6,
	1500000: 0xB7,
	2000000: 0xB8,
}

// BaudCommandByte returns the control byte requesting baud, and
// ok=false if baud has no entry in WLED's table.
func BaudCommandByte(baud int) (b byte, ok bool) {
	b, ok = baudCommand[baud]
	return b, ok
}

// NeedsBaudSwitch reports whether the Switching state applies: the
// target baud differs from the handshake baud.
func NeedsBaudSwitch(handshakeBaud, targetBaud int) bool {
	return handshakeBaud != targetBaud
}
