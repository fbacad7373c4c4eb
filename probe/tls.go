package probe

import "strings"

// TLSPolicy configures the TLS probe's SNI and ALPN allow-lists. A nil
// *TLSPolicy (or one with both lists empty) means no policy: any
// well-formed ClientHello matches.
type TLSPolicy struct {
	// SNIAllow, if non-empty, requires the ClientHello's server name to
	// match at least one entry. Matching is case-insensitive exact, with
	// a left-most "*" label matching exactly one label.
	SNIAllow []string
	// ALPNAllow, if non-empty, requires at least one of the
	// ClientHello's ALPN protocols to match at least one entry here.
	// Matching is case-sensitive exact.
	ALPNAllow []string
}

// TLS matches a TLS ClientHello, evaluating entry's *TLSPolicy (if any)
// against the extracted SNI and ALPN values. See parseClientHello for the
// framing-level AGAIN/NEXT contract.
func TLS(buf []byte, entry *ProtocolEntry) Outcome {
	outcome, hello := parseClientHello(buf)
	if outcome != Match {
		return outcome
	}

	policy, _ := entry.Data.(*TLSPolicy)
	if policy == nil {
		return Match
	}
	if len(policy.SNIAllow) > 0 && !sniAllowed(hello.serverName, policy.SNIAllow) {
		return Next
	}
	if len(policy.ALPNAllow) > 0 && !alpnAllowed(hello.alpn, policy.ALPNAllow) {
		return Next
	}
	return Match
}

func sniAllowed(name string, allow []string) bool {
	if name == "" {
		return false
	}
	for _, pattern := range allow {
		if sniMatches(name, pattern) {
			return true
		}
	}
	return false
}

// sniMatches compares name against pattern case-insensitively, honoring a
// left-most "*" label in pattern that matches exactly one label of name.
func sniMatches(name, pattern string) bool {
	if !strings.HasPrefix(pattern, "*.") {
		return strings.EqualFold(name, pattern)
	}

	suffix := pattern[1:] // ".example.com"
	nameLabels := strings.SplitN(name, ".", 2)
	if len(nameLabels) != 2 {
		return false
	}
	return strings.EqualFold("."+nameLabels[1], suffix)
}

func alpnAllowed(protos []string, allow []string) bool {
	for _, p := range protos {
		for _, a := range allow {
			if p == a {
				return true
			}
		}
	}
	return false
}
