package leads

import "strings"

const phoneDigits = 10

// FormatPhone applies the (XXX) XXX-XXXX display mask to whatever digits are
// present in value, ignoring everything else. Partial input yields a prefix of
// the mask; input without digits yields "".
func FormatPhone(value string) string {
	d := digitsOnly(value)
	if len(d) > phoneDigits {
		d = d[:phoneDigits]
	}
	switch {
	case len(d) == 0:
		return ""
	case len(d) <= 3:
		return "(" + d
	case len(d) <= 6:
		return "(" + d[:3] + ") " + d[3:]
	default:
		return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
	}
}

func digitsOnly(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if c := value[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
