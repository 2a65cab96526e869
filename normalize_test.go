package mdlex

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "a\nb\n", want: "a\nb\n"},
		{name: "crlf", in: "a\r\nb\r\n", want: "a\nb\n"},
		{name: "cr", in: "a\rb", want: "a\nb"},
		{name: "nul", in: "a\x00b", want: "a�b"},
		{name: "leading tab kept", in: "\tcode\n", want: "\tcode\n"},
		{name: "inner tab kept", in: "a\tb\r\n\tc", want: "a\tb\n\tc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestContentFrom(t *testing.T) {
	cases := []struct {
		name string
		in   string
		col  int
		n    int
		want string
	}{
		{name: "spaces", in: "    x", col: 0, n: 2, want: "  x"},
		{name: "whole tab", in: "\tx", col: 0, n: 4, want: "x"},
		{name: "partial tab", in: "\tx", col: 1, n: 1, want: "  x"},
		{name: "tab after content column", in: "  \tx", col: 0, n: 2, want: "  x"},
		{name: "inner tab kept", in: "  a\tb", col: 0, n: 2, want: "a\tb"},
		{name: "short indent", in: " x", col: 0, n: 4, want: "x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := contentFrom(tc.in, tc.col, tc.n); got != tc.want {
				t.Fatalf("contentFrom(%q, %d, %d) = %q, want %q", tc.in, tc.col, tc.n, got, tc.want)
			}
		})
	}
}
