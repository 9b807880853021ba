// Package vbus implements the frame model and field decoding primitives
// for the RESOL VBus protocol, version 1.0.
package vbus

import (
	"fmt"
	"strconv"
)

const (
	// FrameDelimiter bounds every frame on the wire. The payload never
	// contains it; VBus keeps data bytes below 0x80.
	FrameDelimiter byte = 0xAA

	// ProtocolVersion is the wire-format revision this decoder supports.
	ProtocolVersion byte = 0x10

	// MinFrameLength is the smallest buffer that carries a version byte.
	MinFrameLength = 6

	versionIndex = 5
)

// ValidFrame reports whether frame is long enough to carry a header and
// advertises the supported protocol version.
func ValidFrame(frame []byte) bool {
	return len(frame) >= MinFrameLength && frame[versionIndex] == ProtocolVersion
}

// Packet is one delimited frame, including the leading delimiter byte.
// Field offsets are counted from the first byte after the delimiter.
// The primitives index the buffer directly; a sensor configured past the
// end of the frame panics with a bounds error, which the decoder recovers.
type Packet []byte

// RawValue returns the signed little-endian integer of the given byte
// width starting at offset. Width must be between 1 and 8 bytes.
func (p Packet) RawValue(offset, size int) int64 {
	var v uint64
	for i := size - 1; i >= 0; i-- {
		v = v<<8 | uint64(p[1+offset+i])
	}
	shift := uint(64 - 8*size)
	return int64(v<<shift) >> shift
}

// TemperatureValue returns the field at offset scaled by factor.
// Factors are decimal scaling steps (0.1, 0.01), so the product is
// rounded back to 12 significant digits to avoid binary artifacts like
// 45.300000000000004 leaking into the published values.
func (p Packet) TemperatureValue(offset, size int, factor float64) float64 {
	v := float64(p.RawValue(offset, size)) * factor
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', 12, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// BitValue returns bit position (0 = least significant) of the byte at
// offset.
func (p Packet) BitValue(offset, position int) bool {
	return p[1+offset]>>uint(position)&1 == 1
}

// TimeValue interprets the field at offset as minutes since midnight and
// renders it as a time of day.
func (p Packet) TimeValue(offset, size int) string {
	minutes := p.RawValue(offset, size)
	minutes %= 24 * 60
	if minutes < 0 {
		minutes += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
