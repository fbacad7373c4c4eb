package probe

import "bytes"

// httpMethods are checked in this exact order, matching the order clients
// most commonly use so the common case returns fast.
var httpMethods = [][]byte{
	[]byte("OPTIONS"),
	[]byte("GET"),
	[]byte("HEAD"),
	[]byte("POST"),
	[]byte("PUT"),
	[]byte("DELETE"),
	[]byte("TRACE"),
	[]byte("CONNECT"),
}

// HTTP matches if "HTTP" appears anywhere in the (capped) prefix (covers
// request lines and status lines alike), or if the buffer starts with one
// of the standard request methods. Method matching is case-sensitive.
func HTTP(buf []byte, _ *ProtocolEntry) Outcome {
	scan := buf
	if len(scan) > searchCap {
		scan = scan[:searchCap]
	}
	if bytes.Contains(scan, []byte("HTTP")) {
		return Match
	}

	for _, method := range httpMethods {
		if len(buf) < len(method) {
			return Again
		}
		if bytes.HasPrefix(buf, method) {
			return Match
		}
	}
	return Next
}
