package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello-world"},
		{"Pagne wax imprimé", "pagne-wax-imprime"},
		{"Bœuf  séché!", "boeuf-seche"},
		{"  Crème -- Karité  ", "creme-karite"},
		{"Ɓoubou brodé", "boubou-brode"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.input))
		})
	}
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("Pagne wax imprimé", "IMPRIME"))
	assert.True(t, Matches("Pagne wax imprimé", "wax pagne"))
	assert.True(t, Matches("Crème au karité", "creme"))
	assert.True(t, Matches("Anything", "  "))
	assert.False(t, Matches("Pagne wax imprimé", "bazin"))
	assert.False(t, Matches("Pagne wax", "wax bazin"))
}
