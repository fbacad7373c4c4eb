package probe

import "testing"

func mustEntry(name string, fn ProbeFunc) *ProtocolEntry {
	return &ProtocolEntry{Name: name, Probe: fn}
}

func TestProbeBufferScenarios(t *testing.T) {
	t.Run("ssh wins over tls and anyprot", func(t *testing.T) {
		entries := []*ProtocolEntry{
			mustEntry("ssh", SSH),
			mustEntry("tls", TLS),
			mustEntry(AnyProtName, AnyProt),
		}
		outcome, entry := ProbeBuffer(entries, []byte("SSH-2.0-OpenSSH_8.9\r\n"))
		if outcome != Match || entry.Name != "ssh" {
			t.Fatalf("got (%v, %v), want (Match, ssh)", outcome, entryName(entry))
		}
	})

	t.Run("http wins", func(t *testing.T) {
		entries := []*ProtocolEntry{
			mustEntry("ssh", SSH),
			mustEntry("http", HTTP),
			mustEntry(AnyProtName, AnyProt),
		}
		outcome, entry := ProbeBuffer(entries, []byte("GET / HTTP/1.1\r\n"))
		if outcome != Match || entry.Name != "http" {
			t.Fatalf("got (%v, %v), want (Match, http)", outcome, entryName(entry))
		}
	})

	t.Run("socks5 wins", func(t *testing.T) {
		entries := []*ProtocolEntry{
			mustEntry("ssh", SSH),
			mustEntry("socks5", SOCKS5),
			mustEntry(AnyProtName, AnyProt),
		}
		outcome, entry := ProbeBuffer(entries, []byte{0x05, 0x02, 0x00, 0x01})
		if outcome != Match || entry.Name != "socks5" {
			t.Fatalf("got (%v, %v), want (Match, socks5)", outcome, entryName(entry))
		}
	})

	t.Run("truncated socks5 is again", func(t *testing.T) {
		entries := []*ProtocolEntry{
			mustEntry("ssh", SSH),
			mustEntry("socks5", SOCKS5),
			mustEntry(AnyProtName, AnyProt),
		}
		outcome, entry := ProbeBuffer(entries, []byte{0x05, 0x02, 0x00})
		if outcome != Again || entry != nil {
			t.Fatalf("got (%v, %v), want (Again, nil)", outcome, entryName(entry))
		}
	})

	t.Run("too-short ssh is again, not exhaustion", func(t *testing.T) {
		entries := []*ProtocolEntry{
			mustEntry("ssh", SSH),
			mustEntry(AnyProtName, AnyProt),
		}
		outcome, entry := ProbeBuffer(entries, []byte("SSH"))
		if outcome != Again || entry != nil {
			t.Fatalf("got (%v, %v), want (Again, nil)", outcome, entryName(entry))
		}
	})

	t.Run("exhaustion falls back to anyprot", func(t *testing.T) {
		entries := []*ProtocolEntry{
			mustEntry("ssh", SSH),
			mustEntry("http", HTTP),
			mustEntry(AnyProtName, AnyProt),
		}
		// Long enough that every probe with a length requirement is
		// satisfied but none of them match: exhaustion, not Again.
		outcome, entry := ProbeBuffer(entries, []byte("not a known protocol at all, long enough"))
		if outcome != Match || entry.Name != AnyProtName {
			t.Fatalf("got (%v, %v), want (Match, anyprot)", outcome, entryName(entry))
		}
	})

	t.Run("min_length gates the probe", func(t *testing.T) {
		entries := []*ProtocolEntry{
			{Name: "gated", Probe: AnyProt, MinLength: 10},
			mustEntry(AnyProtName, AnyProt),
		}
		outcome, entry := ProbeBuffer(entries, []byte("short"))
		if outcome != Again || entry != nil {
			t.Fatalf("got (%v, %v), want (Again, nil)", outcome, entryName(entry))
		}

		outcome, entry = ProbeBuffer(entries, []byte("now long enough"))
		if outcome != Match || entry.Name != "gated" {
			t.Fatalf("got (%v, %v), want (Match, gated)", outcome, entryName(entry))
		}
	})

	t.Run("entries without a probe are skipped", func(t *testing.T) {
		entries := []*ProtocolEntry{
			{Name: "timeout"}, // no probe: externally managed
			mustEntry("ssh", SSH),
			mustEntry(AnyProtName, AnyProt),
		}
		outcome, entry := ProbeBuffer(entries, []byte("SSH-2.0\r\n"))
		if outcome != Match || entry.Name != "ssh" {
			t.Fatalf("got (%v, %v), want (Match, ssh)", outcome, entryName(entry))
		}
	})

	t.Run("declaration order is authoritative", func(t *testing.T) {
		// Both http and anyprot-named-differently would match; the
		// first one declared must win regardless of specificity.
		always := mustEntry("always", AnyProt)
		http := mustEntry("http", HTTP)
		outcome, entry := ProbeBuffer([]*ProtocolEntry{always, http}, []byte("GET / HTTP/1.1\r\n"))
		if outcome != Match || entry.Name != "always" {
			t.Fatalf("got (%v, %v), want (Match, always)", outcome, entryName(entry))
		}
	})
}

func entryName(e *ProtocolEntry) string {
	if e == nil {
		return "<nil>"
	}
	return e.Name
}

func TestProbeBufferNotifiesEachAttempt(t *testing.T) {
	entries := []*ProtocolEntry{
		mustEntry("ssh", SSH),
		mustEntry("http", HTTP),
		mustEntry(AnyProtName, AnyProt),
	}

	var attempted []string
	outcome, entry := ProbeBuffer(entries, []byte("GET / HTTP/1.1\r\n"), func(name string) {
		attempted = append(attempted, name)
	})
	if outcome != Match || entry.Name != "http" {
		t.Fatalf("got (%v, %v), want (Match, http)", outcome, entryName(entry))
	}
	if want := []string{"ssh", "http"}; !slicesEqual(attempted, want) {
		t.Fatalf("attempted = %v, want %v", attempted, want)
	}
}

func TestProbeBufferWithoutNotifierIsUnaffected(t *testing.T) {
	entries := []*ProtocolEntry{
		mustEntry("ssh", SSH),
		mustEntry(AnyProtName, AnyProt),
	}
	outcome, entry := ProbeBuffer(entries, []byte("SSH-2.0\r\n"))
	if outcome != Match || entry.Name != "ssh" {
		t.Fatalf("got (%v, %v), want (Match, ssh)", outcome, entryName(entry))
	}
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
