package core

import (
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "integer", input: "12", want: 1200},
		{name: "two decimals", input: "12.34", want: 1234},
		{name: "one decimal", input: "12.5", want: 1250},
		{name: "comma separator", input: "12,5", want: 1250},
		{name: "rounds half up", input: "12.345", want: 1235},
		{name: "rounds down", input: "12.344", want: 1234},
		{name: "leading dot", input: ".5", want: 50},
		{name: "whitespace trimmed", input: " 7.25 ", want: 725},
		{name: "empty", input: "", wantErr: true},
		{name: "zero rejected", input: "0", wantErr: true},
		{name: "negative rejected", input: "-5", wantErr: true},
		{name: "plus sign rejected", input: "+5", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "two separators", input: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrMissingAmount) {
					t.Fatalf("ParseDecimalToCents(%q) error = %v, want ErrMissingAmount", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{1250, "12.5"},
		{1200, "12"},
		{50, "0.5"},
		{5, "0.05"},
		{0, "0"},
		{-1250, "-12.5"},
		{100000, "1000"},
	}

	for _, tt := range tests {
		got := Money{Cents: tt.cents}.String()
		if got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "number", input: "12.5", want: 1250},
		{name: "quoted string", input: `"12,5"`, want: 1250},
		{name: "null", input: "null", want: 0},
		{name: "negative", input: "-3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Money
			err := m.UnmarshalJSON([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("UnmarshalJSON(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalJSON(%q) unexpected error: %v", tt.input, err)
			}
			if m.Cents != tt.want {
				t.Errorf("UnmarshalJSON(%q) = %d cents, want %d", tt.input, m.Cents, tt.want)
			}
		})
	}
}
