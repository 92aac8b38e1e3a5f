package models

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateChars(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short string untouched", in: "hello", max: 10, want: "hello"},
		{name: "exactly at the cap", in: "hello", max: 5, want: "hello"},
		{name: "over the cap", in: "hello world", max: 8, want: "hello..."},
		{name: "tiny cap yields nothing", in: "hello", max: 3, want: ""},
		{name: "multibyte at the cap", in: strings.Repeat("é", 5), max: 5, want: strings.Repeat("é", 5)},
		{name: "multibyte over the cap", in: strings.Repeat("é", 10), max: 8, want: strings.Repeat("é", 5) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateChars(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
			assert.LessOrEqual(t, utf8.RuneCountInString(got), tt.max)
		})
	}
}
