// Package pixel implements the per-pixel format transform described in
// spec.md §4.6: RGB/GRB/BGR reordering and RGBW/GRBW stride expansion
// with W = min(R, G, B).
//
// Grounded on google-periph's devices/apa102 package, which performs an
// analogous per-pixel reorder-and-expand pass (RGB -> APA102's
// brightness+BGR wire format) immediately before a hardware write; the
// shape here — a lookup of stride by format, in-place reorder when the
// stride doesn't grow, allocate-and-expand when it does — follows that
// model rather than periph's intensity/temperature lookup tables, which
// have no analog in this spec.
package pixel

import "fmt"

// Format is one of the pixel_format values from OutputConfig.
type Format string

const (
	Passthrough Format = "passthrough"
	RGB         Format = "RGB"
	GRB         Format = "GRB"
	BGR         Format = "BGR"
	RGBW        Format = "RGBW"
	GRBW        Format = "GRBW"
)

// Stride returns the number of wire bytes per pixel for f.
func Stride(f Format) (int, error) {
	switch f {
	case Passthrough, RGB, GRB, BGR:
		return 3, nil
	case RGBW, GRBW:
		return 4, nil
	default:
		return 0, fmt.Errorf("pixel: unknown format %q", f)
	}
}

// Transform converts src, an RGB triple stream (len(src) must be a
// multiple of 3), into the wire format for f. For the 3-byte formats the
// result reuses src's backing array (the reorder is done in place,
// matching spec.md's "done in place when the buffer is mutable"
// instruction); for RGBW/GRBW a new, larger buffer is always allocated.
func Transform(src []byte, f Format) ([]byte, error) {
	if len(src)%3 != 0 {
		return nil, fmt.Errorf("pixel: source length %d is not a multiple of 3", len(src))
	}
	n := len(src) / 3

	switch f {
	case Passthrough, RGB:
		return src, nil

	case GRB:
		for i := 0; i < n; i++ {
			j := i * 3
			src[j], src[j+1] = src[j+1], src[j]
		}
		return src, nil

	case BGR:
		for i := 0; i < n; i++ {
			j := i * 3
			src[j], src[j+2] = src[j+2], src[j]
		}
		return src, nil

	case RGBW:
		dst := make([]byte, n*4)
		for i := 0; i < n; i++ {
			s, d := i*3, i*4
			r, g, b := src[s], src[s+1], src[s+2]
			dst[d], dst[d+1], dst[d+2] = r, g, b
			dst[d+3] = minByte(r, g, b)
		}
		return dst, nil

	case GRBW:
		dst := make([]byte, n*4)
		for i := 0; i < n; i++ {
			s, d := i*3, i*4
			r, g, b := src[s], src[s+1], src[s+2]
			dst[d], dst[d+1], dst[d+2] = g, r, b
			dst[d+3] = minByte(r, g, b)
		}
		return dst, nil

	default:
		return nil, fmt.Errorf("pixel: unknown format %q", f)
	}
}

func minByte(a, b, c byte) byte {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
