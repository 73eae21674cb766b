package numfmt

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1,234", "12.34"},
		{"1,234.56", "12.3456"},
		{"1,000%", "10"},
		{"45%", "45"},
		{"12.5", "12.5"},
		{"0", "0"},
		{"-3.20", "-3.2"},
		{" 3 ", "3"},
		{"abc", "0"},
		{"", "0"},
		{"12,ab", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Parse(tt.in)
			want := decimal.RequireFromString(tt.want)
			assert.True(t, got.Equal(want), "Parse(%q) = %s, want %s", tt.in, got, want)
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"3", 3},
		{"2.7", 2},
		{"0", 0},
		{"1,200", 12},
		{"junk", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseInt(tt.in))
		})
	}
}
