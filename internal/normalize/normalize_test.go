package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"single line", "  hello  ", "hello"},
		{"blank lines dropped", "a\n\n   \nb", "a\nb"},
		{"lines trimmed", "  a  \n\t b \t\n", "a\nb"},
		{"only whitespace", " \n \t \n ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestLines(t *testing.T) {
	assert.Nil(t, Lines("  \n \n"))
	assert.Equal(t, []string{"123456", "Announcement", "Customer"}, Lines("\n 123456 \n\nAnnouncement\n  Customer  \n"))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"nil", nil, 0},
		{"float", 12.5, 12.5},
		{"int", 42, 42},
		{"locale string", "1 234,56", 1234.56},
		{"nbsp thousands", "1 234,56", 1234.56},
		{"plain string", "1000", 1000},
		{"dot decimal passthrough", "12.5", 12.5},
		{"garbage", "abc", 0},
		{"empty string", "", 0},
		{"double comma", "1,2,3", 0},
		{"whitespace only", "   ", 0},
		{"unsupported type", struct{}{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseNumber(tt.in), 1e-9)
		})
	}
}
