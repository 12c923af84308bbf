package amount

import "testing"

func TestFormat(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0.000000"},
		{1, "0.000001"},
		{1_000_000, "1.000000"},
		{100_000_000, "100.000000"},
		{1_500_000, "1.500000"},
		{123_456_789, "123.456789"},
		// negatives keep their sign rather than being masked
		{-1, "-0.000001"},
		{-1_500_000, "-1.500000"},
		{-100_000_000, "-100.000000"},
	}
	for _, c := range cases {
		if got := Format(c.in); got != c.want {
			t.Fatalf("Format(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"100", 100_000_000},
		{"100.000000", 100_000_000},
		{"1.5", 1_500_000},
		{"0.000001", 1},
		{".5", 500_000},
		{"123.456789", 123_456_789},
		// digits beyond the sixth are truncated, never rounded
		{"1.9999999", 1_999_999},
		{"0.0000019", 1},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q) unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("Parse(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "-1", "-0.5", "abc", "1.2.3", "1,5", "."} {
		if _, err := Parse(in); err == nil {
			t.Fatalf("Parse(%q) expected error", in)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	values := []int64{0, 1, 999_999, 1_000_000, 1_000_001, 123_456_789, 987_654_321_012_345}
	for _, v := range values {
		got, err := Parse(Format(v))
		if err != nil {
			t.Fatalf("round trip %d: %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip mismatch: %d != %d", got, v)
		}
	}
}
