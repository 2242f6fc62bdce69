package util

import "testing"

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  int
	}{
		{name: "plain", input: "3", want: 3},
		{name: "with unit", input: "12 pzas", want: 12},
		{name: "thousand with dot", input: "1.000", want: 1000},
		{name: "thousand with space", input: "1 000 unidades", want: 1000},
		{name: "decimal comma", input: "2,0", want: 2},
		{name: "rounded", input: "2.6", want: 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseQuantity(tc.input)
			if got == nil {
				t.Fatalf("qty is nil")
			}
			if *got != tc.want {
				t.Fatalf("got %v want %v", *got, tc.want)
			}
		})
	}
}

func TestParseQuantityNoNumber(t *testing.T) {
	if got := ParseQuantity("sin dato"); got != nil {
		t.Fatalf("want nil, got %v", *got)
	}
}
