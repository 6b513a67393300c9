package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line  string
		delim rune
		want  []string
	}{
		{"a,b,c", ',', []string{"a", "b", "c"}},
		{`05/11,"UBER, TRIP",23.50`, ',', []string{"05/11", "UBER, TRIP", "23.50"}},
		{`05/11;"Loja ""Top"" Ltda";"1.234,56"`, ';', []string{"05/11", `Loja "Top" Ltda`, "1.234,56"}},
		{"05/11\tNETFLIX\t39,90", '\t', []string{"05/11", "NETFLIX", "39,90"}},
		{"05/11 | SPOTIFY | 19,90", '|', []string{"05/11", "SPOTIFY", "19,90"}},
		{"a,,c", ',', []string{"a", "", "c"}},
	}
	for _, tt := range tests {
		got, err := SplitLine(tt.line, tt.delim)
		require.NoError(t, err, "line %q", tt.line)
		assert.Equal(t, tt.want, got, "line %q", tt.line)
	}
}
