//go:build rp2040

package strconvx

// Minimal, allocation-aware helpers with identical signatures.
// Decimal is the only base the firmware needs; other bases are rejected.

type parseError struct{ msg string }

func (e parseError) Error() string { return e.msg }

var (
	errSyntax = parseError{"invalid syntax"}
	errRange  = parseError{"value out of range"}
	errBase   = parseError{"unsupported base"}
)

func Itoa(i int) string {
	if i < 0 {
		return "-" + FormatUint(uint64(-int64(i)), 10)
	}
	return FormatUint(uint64(i), 10)
}

func Atoi(s string) (int, error) {
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	u, err := ParseUint(s, 10, 63)
	if err != nil {
		return 0, err
	}
	if neg {
		return -int(u), nil
	}
	return int(u), nil
}

func FormatUint(u uint64, base int) string {
	if base != 10 {
		base = 10
	}
	if u == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	return string(buf[i:])
}

// ParseUint accepts base 10 (or 0, treated as 10) and enforces bitSize like strconv.
func ParseUint(s string, base, bitSize int) (uint64, error) {
	if base != 0 && base != 10 {
		return 0, errBase
	}
	if len(s) == 0 {
		return 0, errSyntax
	}
	if bitSize <= 0 || bitSize > 64 {
		bitSize = 64
	}
	var max uint64 = 1<<uint(bitSize) - 1
	if bitSize == 64 {
		max = ^uint64(0)
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, errSyntax
		}
		d := uint64(c - '0')
		if v > (max-d)/10 {
			return 0, errRange
		}
		v = v*10 + d
	}
	return v, nil
}
