package leads

import (
	"regexp"
	"testing"
)

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", ""},
		{"7", "(7"},
		{"760", "(760"},
		{"7608", "(760) 8"},
		{"760846", "(760) 846"},
		{"7608460", "(760) 846-0"},
		{"7608460414", "(760) 846-0414"},
		{"760-846-0414", "(760) 846-0414"},
		{"760.846.0414 ext 9", "(760) 846-0414"},
		{"76084604149999", "(760) 846-0414"},
		{"(760) 846-0414", "(760) 846-0414"},
	}
	for _, tt := range tests {
		if got := FormatPhone(tt.in); got != tt.want {
			t.Errorf("FormatPhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPhone_Idempotent(t *testing.T) {
	inputs := []string{"", "1", "12", "123", "1234", "12345", "123456", "1234567", "1234567890", "x9y8z7"}
	for _, in := range inputs {
		once := FormatPhone(in)
		if twice := FormatPhone(once); twice != once {
			t.Errorf("FormatPhone not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestFormatPhone_FullNumberPassesValidation(t *testing.T) {
	formatted := FormatPhone("7608460414")
	if res := ValidateField(FieldPhone, formatted); !res.Valid {
		t.Fatalf("expected %q to be valid, got %q", formatted, res.Error)
	}
}

// partialPhone matches every prefix of the (XXX) XXX-XXXX mask.
var partialPhone = regexp.MustCompile(`^(|\(\d{1,3}|\(\d{3}\) \d{1,3}|\(\d{3}\) \d{3}-\d{1,4})$`)

func FuzzFormatPhone(f *testing.F) {
	for _, seed := range []string{"", "abc", "7", "7608460", "760-846-0414", "76084604149999", "(760) 846-0414", "\xff1\xfe2"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, in string) {
		out := FormatPhone(in)
		if !partialPhone.MatchString(out) {
			t.Fatalf("FormatPhone(%q) = %q, not a prefix of the mask", in, out)
		}
		digits := digitsOnly(in)
		if len(digits) > phoneDigits {
			digits = digits[:phoneDigits]
		}
		if got := digitsOnly(out); got != digits {
			t.Fatalf("FormatPhone(%q) kept digits %q, want %q", in, got, digits)
		}
		if len(digits) == phoneDigits && !phonePattern.MatchString(out) {
			t.Fatalf("FormatPhone(%q) = %q, full number must pass validation", in, out)
		}
		if twice := FormatPhone(out); twice != out {
			t.Fatalf("not idempotent for %q: %q then %q", in, out, twice)
		}
	})
}
