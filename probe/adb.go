package probe

import "bytes"

const (
	adbHeaderLen = 24 // CNXN message header
	adbHostTag   = "host:"
	// adbHostOffset is where the "host:" tag begins relative to the start
	// of a CNXN message: after the 24-byte header.
	adbHostOffset = adbHeaderLen
	// adbEmptyLen is the length of the empty-message prefix certain ADB
	// client builds send ahead of the real CNXN message: 20 zero bytes
	// followed by four 0xFF bytes.
	adbEmptyLen = 24
)

// adbEmptyPrefix is 20 zero bytes followed by four 0xFF bytes.
var adbEmptyPrefix = append(append([]byte{}, make([]byte, 20)...), 0xFF, 0xFF, 0xFF, 0xFF)

func adbCnxnHost(buf []byte) bool {
	return bytes.HasPrefix(buf, []byte("CNXN")) &&
		bytes.Equal(buf[adbHostOffset:adbHostOffset+len(adbHostTag)], []byte(adbHostTag))
}

// ADB matches the ADB "connect" handshake: a CNXN message immediately, or a
// CNXN message preceded by an empty-message prefix some client builds send.
// The empty-message heuristic is active unless entry.Data is an *ADBPolicy
// with AllowEmptyPrefix set to false.
func ADB(buf []byte, entry *ProtocolEntry) Outcome {
	const H = 30 // 24-byte header + 5-byte "host:" tag + one more byte

	if len(buf) < H {
		return Again
	}
	if adbCnxnHost(buf) {
		return Match
	}

	policy, _ := entry.Data.(*ADBPolicy)
	if policy != nil && !policy.AllowEmptyPrefix {
		return Next
	}

	const E = adbEmptyLen
	if len(buf) < H+E {
		return Again
	}
	if !bytes.Equal(buf[:E], adbEmptyPrefix) {
		return Next
	}
	if adbCnxnHost(buf[E:]) {
		return Match
	}
	return Next
}

// ADBPolicy configures the ADB probe's empty-message heuristic, which is
// tied to a specific client build observed in the wild. AllowEmptyPrefix
// defaults to true (the historical behavior) when Data is nil.
type ADBPolicy struct {
	AllowEmptyPrefix bool
}
