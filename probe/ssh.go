package probe

var sshPrefix = []byte("SSH-")

// SSH matches the SSH identification string every server and client sends
// first: "SSH-" followed by a protocol version.
func SSH(buf []byte, _ *ProtocolEntry) Outcome {
	if len(buf) < len(sshPrefix) {
		return Again
	}
	for i, b := range sshPrefix {
		if buf[i] != b {
			return Next
		}
	}
	return Match
}
