package query

import (
	"math/big"
	"testing"
)

func TestResolveBlockTagHeights(t *testing.T) {
	cases := []struct {
		text string
		head uint64
		want int64
	}{
		{"", 1000, 1000},
		{"   ", 1000, 1000},
		{"latest", 1000, 1000},
		{"LATEST", 1000, 1000},
		{"latest-50", 1000, 950},
		{"latest +10", 1000, 1010},
		{"latest - 3", 1000, 997},
		{"+25", 1000, 1025},
		{"-25", 1000, 975},
		{"12345", 1000, 12345},
		{"0", 1000, 0},
	}

	for _, tc := range cases {
		got := ResolveBlockTag(tc.text, tc.head)
		if got.IsTag() {
			t.Fatalf("%q: expected height, got tag %q", tc.text, got.Tag())
		}
		if got.Height().Cmp(big.NewInt(tc.want)) != 0 {
			t.Fatalf("%q: expected %d, got %s", tc.text, tc.want, got.Height())
		}
	}
}

func TestResolveBlockTagNegativeResultUnclamped(t *testing.T) {
	got := ResolveBlockTag("latest-50", 10)
	if got.IsTag() {
		t.Fatalf("expected height endpoint")
	}
	if got.Height().Cmp(big.NewInt(-40)) != 0 {
		t.Fatalf("expected -40, got %s", got.Height())
	}
}

func TestResolveBlockTagPassThrough(t *testing.T) {
	// Unrecognized text must come back byte for byte, padding included.
	for _, text := range []string{"earliest", "pending", "finalized", "someday", "12x45", "  safe  "} {
		got := ResolveBlockTag(text, 1000)
		if !got.IsTag() {
			t.Fatalf("%q: expected tag, got height %s", text, got.Height())
		}
		if got.Tag() != text {
			t.Fatalf("%q: tag mismatch: %q", text, got.Tag())
		}
	}
}
