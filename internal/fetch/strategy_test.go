package fetch

import (
	"errors"
	"testing"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in   string
		want Method
	}{
		{"", MethodAuto},
		{"auto", MethodAuto},
		{"HTTP", MethodHTTP},
		{"challenge", MethodChallenge},
		{" playwright ", MethodPlaywright},
		{"rod", MethodRod},
		{"axios", MethodHTTP},
		{"cloudscraper", MethodChallenge},
		{"puppeteer", MethodRod},
	}
	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		if err != nil {
			t.Fatalf("ParseMethod(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseMethod(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseMethodUnknown(t *testing.T) {
	_, err := ParseMethod("selenium")
	if !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
}

func TestMethodStringRoundTrip(t *testing.T) {
	for _, m := range []Method{MethodAuto, MethodHTTP, MethodChallenge, MethodPlaywright, MethodRod} {
		parsed, err := ParseMethod(m.String())
		if err != nil || parsed != m {
			t.Fatalf("round trip of %v gave %v, %v", m, parsed, err)
		}
	}
	if got := Method(42).String(); got != "method(42)" {
		t.Fatalf("unexpected out-of-range name %q", got)
	}
}
