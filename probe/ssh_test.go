package probe

import "testing"

func TestSSH(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		want Outcome
	}{
		{"too short", []byte("SSH"), Again},
		{"empty", nil, Again},
		{"match", []byte("SSH-2.0-OpenSSH_8.9\r\n"), Match},
		{"mismatch", []byte("GET / HTTP/1.1\r\n"), Next},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := SSH(c.buf, nil); got != c.want {
				t.Errorf("SSH(%q) = %v, want %v", c.buf, got, c.want)
			}
		})
	}
}
