package probe

import (
	"strings"
	"testing"
)

func TestXMPP(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		want Outcome
	}{
		{"jabber anywhere", []byte("<stream:stream xmlns='jabber:client'>"), Match},
		{"jabber late in buffer", []byte(strings.Repeat("x", 40) + "jabber"), Match},
		{"short, waiting", []byte("<stream:stream"), Again},
		{"long, no jabber", []byte(strings.Repeat("x", 60)), Next},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := XMPP(c.buf, nil); got != c.want {
				t.Errorf("XMPP(%q) = %v, want %v", c.buf, got, c.want)
			}
		})
	}
}
