package probe

import (
	"encoding/binary"

	"golang.org/x/crypto/cryptobyte"
)

// clientHello holds what the TLS probe needs out of a ClientHello: the SNI
// server name (if any) and the advertised ALPN protocols (if any).
type clientHello struct {
	serverName string
	alpn       []string
}

const (
	extServerName = 0x0000
	extALPN       = 0x0010
	sniHostName   = 0x00
)

// sniRecordLengthCap bounds how large a declared TLS record length we're
// willing to wait for before giving up and calling the input malformed
// rather than merely truncated: 2^14, the largest plaintext record TLS
// permits.
const sniRecordLengthCap = 1 << 14

// parseClientHello parses the first bytes of a TLS record and ClientHello.
// It returns Again if buf is a plausible-but-truncated prefix, Next if buf
// is structurally not a ClientHello, and Match with the extracted
// clientHello if parsing succeeded.
func parseClientHello(buf []byte) (Outcome, clientHello) {
	var hello clientHello

	if len(buf) < 5 {
		return Again, hello
	}
	if buf[0] != 0x16 {
		return Next, hello
	}
	minor := buf[2]
	if minor > 4 {
		return Next, hello
	}

	recordLen := int(binary.BigEndian.Uint16(buf[3:5]))
	if recordLen > sniRecordLengthCap {
		return Next, hello
	}
	if len(buf) < 5+recordLen {
		return Again, hello
	}

	// From here on, any declared length that would run past the bytes we
	// actually have is treated as Again: a ClientHello's handshake
	// message is allowed to span beyond a single TLS record, so running
	// out of buf here does not yet mean the input is malformed.
	pos := 5
	need := func(n int) bool { return len(buf)-pos >= n }

	if !need(4) {
		return Again, hello
	}
	handshakeType := buf[pos]
	hsLen := int(buf[pos+1])<<16 | int(buf[pos+2])<<8 | int(buf[pos+3])
	pos += 4
	if handshakeType != 0x01 {
		return Next, hello
	}
	if !need(hsLen) {
		return Again, hello
	}
	body := buf[pos : pos+hsLen]

	outcome := parseClientHelloBody(body, &hello)
	return outcome, hello
}

// parseClientHelloBody parses the ClientHello body (client version,
// random, session id, cipher suites, compression methods, extensions) and
// fills in hello's SNI/ALPN from the extension block.
func parseClientHelloBody(body []byte, hello *clientHello) Outcome {
	pos := 0
	need := func(n int) bool { return len(body)-pos >= n }

	// client_version(2) + random(32)
	if !need(34) {
		return Again
	}
	pos += 34

	// session_id
	if !need(1) {
		return Again
	}
	sidLen := int(body[pos])
	pos++
	if !need(sidLen) {
		return Again
	}
	pos += sidLen

	// cipher_suites
	if !need(2) {
		return Again
	}
	csLen := int(binary.BigEndian.Uint16(body[pos : pos+2]))
	pos += 2
	if !need(csLen) {
		return Again
	}
	pos += csLen

	// compression_methods
	if !need(1) {
		return Again
	}
	cmLen := int(body[pos])
	pos++
	if !need(cmLen) {
		return Again
	}
	pos += cmLen

	// extensions
	if !need(2) {
		return Again
	}
	extLen := int(binary.BigEndian.Uint16(body[pos : pos+2]))
	pos += 2
	if !need(extLen) {
		return Again
	}
	extBlock := body[pos : pos+extLen]

	if !parseExtensions(extBlock, hello) {
		return Next
	}
	return Match
}

// parseExtensions walks the ClientHello extension block, collecting the
// first SNI host_name entry and all ALPN protocol names. It reports false
// if the block itself is malformed (declared extension lengths that don't
// fit within extBlock, which is fully buffered by the time this runs).
func parseExtensions(extBlock []byte, hello *clientHello) bool {
	pos := 0
	for pos+4 <= len(extBlock) {
		extType := binary.BigEndian.Uint16(extBlock[pos : pos+2])
		extDataLen := int(binary.BigEndian.Uint16(extBlock[pos+2 : pos+4]))
		pos += 4
		if pos+extDataLen > len(extBlock) {
			return false
		}
		data := extBlock[pos : pos+extDataLen]
		pos += extDataLen

		switch extType {
		case extServerName:
			if name, ok := parseServerNameList(data); ok && hello.serverName == "" {
				hello.serverName = name
			}
		case extALPN:
			if protos, ok := parseALPNList(data); ok {
				hello.alpn = append(hello.alpn, protos...)
			}
		}
	}
	return true
}

// parseServerNameList decodes the server_name extension payload: a 2-byte
// list length, then a sequence of (1-byte name-type, 2-byte name-length,
// name) entries. Only the first host_name (type 0x00) entry is returned.
func parseServerNameList(data []byte) (string, bool) {
	s := cryptobyte.String(data)
	var list cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&list) {
		return "", false
	}
	for !list.Empty() {
		var nameType uint8
		var name cryptobyte.String
		if !list.ReadUint8(&nameType) || !list.ReadUint16LengthPrefixed(&name) {
			return "", false
		}
		if nameType == sniHostName {
			return string(name), true
		}
	}
	return "", false
}

// parseALPNList decodes the ALPN extension payload: a 2-byte list length,
// then a sequence of (1-byte length, proto bytes) entries.
func parseALPNList(data []byte) ([]string, bool) {
	s := cryptobyte.String(data)
	var list cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&list) {
		return nil, false
	}
	var protos []string
	for !list.Empty() {
		var proto cryptobyte.String
		if !list.ReadUint8LengthPrefixed(&proto) {
			return nil, false
		}
		protos = append(protos, string(proto))
	}
	return protos, true
}
