package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12.34", "12.34", true},
		{"12,34", "12.34", true},
		{"12.345", "12.35", true},
		{"12.344", "12.34", true},
		{"0", "0.00", true},
		{".5", "0.50", true},
		{"7.", "7.00", true},
		{"-5", "", false},
		{"+5", "", false},
		{"", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{".", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error %v", tc.in, err)
			}
			if FormatAmount(got) != tc.want {
				t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, FormatAmount(got), tc.want)
			}
			continue
		}
		if !IsValidationError(err) {
			t.Fatalf("ParseAmount(%q) expected validation error, got %v", tc.in, err)
		}
	}
}
