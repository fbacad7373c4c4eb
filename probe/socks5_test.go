package probe

import "testing"

func TestSOCKS5(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		want Outcome
	}{
		{"too short", []byte{0x05}, Again},
		{"wrong version", []byte{0x04, 0x01, 0x00}, Next},
		{"method count zero", []byte{0x05, 0x00}, Next},
		{"method count eleven", []byte{0x05, 0x0b}, Next},
		{"truncated methods", []byte{0x05, 0x02, 0x00}, Again},
		{"method out of range", []byte{0x05, 0x01, 0x0a}, Next},
		{"match, one method", []byte{0x05, 0x01, 0x00}, Match},
		{"match, ten methods", append([]byte{0x05, 0x0a}, make([]byte, 10)...), Match},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := SOCKS5(c.buf, nil); got != c.want {
				t.Errorf("SOCKS5(%v) = %v, want %v", c.buf, got, c.want)
			}
		})
	}
}
