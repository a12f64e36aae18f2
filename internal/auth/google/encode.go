package google

import (
	"fmt"
	"strconv"
	"strings"
)

// percentEncode escapes s for use inside a URL query value. Only ASCII
// letters and digits pass through; every other byte becomes an upper-hex
// %XX triple. Spaces are escaped as %20, never as "+".
func percentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range []byte(s) {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		} else {
			b.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}
	return b.String()
}

// percentDecode resolves %XX triples in s. Decoded values are collected as
// raw bytes and interpreted as UTF-8 at the end, so multi-byte characters
// survive the round trip. Bytes outside escape sequences are copied as-is,
// and malformed triples are left literal.
func percentDecode(s string) string {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		if s[i] == '%' && i+2 < len(s) {
			if n, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				buf = append(buf, byte(n))
				i += 3
				continue
			}
		}
		buf = append(buf, s[i])
		i++
	}
	return string(buf)
}
