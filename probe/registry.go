package probe

// registry is the static table of built-in probe names. "regex" and
// "timeout" are intentionally absent: both are pseudo-names resolved by
// the configuration binder, never looked up here at runtime from
// user-controlled input.
var registry = map[string]ProbeFunc{
	"ssh":     SSH,
	"openvpn": OpenVPN,
	"tinc":    Tinc,
	"xmpp":    XMPP,
	"http":    HTTP,
	"adb":     ADB,
	"socks5":  SOCKS5,
	"tls":     TLS,
	"anyprot": AnyProt,
}

// ResolveBuiltin looks up a probe by its built-in name. It reports false
// for "regex", "timeout", and any other unrecognized name; those are
// handled by the configuration binder.
func ResolveBuiltin(name string) (ProbeFunc, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Resolve resolves a probe by name, including the two reserved pseudo-names
// a configuration binder is allowed to use: "regex" (bound to the Regex
// probe directly, since the binder is the only caller that ever names it)
// and "timeout" (bound to the always-match sentinel, so "timeout" can
// appear as a pseudo-protocol in configurations). It reports false for any
// name that resolves to nothing.
func Resolve(name string) (ProbeFunc, bool) {
	switch name {
	case "regex":
		return Regex, true
	case "timeout":
		return AnyProt, true
	default:
		return ResolveBuiltin(name)
	}
}
