package logging

import "testing"

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"jane@example.com": "j**e@example.com",
		"ab@example.com":   "a*@example.com",
		"a@example.com":    "a@example.com",
		"  ":               "",
		"noatsign":         "n******n",
	}
	for in, want := range cases {
		if got := MaskEmail(in); got != want {
			t.Errorf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskPhone(t *testing.T) {
	cases := map[string]string{
		"(760) 846-0414": "(***) ***-0414",
		"123":            "**3",
		"":               "",
	}
	for in, want := range cases {
		if got := MaskPhone(in); got != want {
			t.Errorf("MaskPhone(%q) = %q, want %q", in, got, want)
		}
	}
}
