package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinesRejectsGarbage(t *testing.T) {
	_, err := Lines([]byte("definitely not a pdf"))
	require.Error(t, err)
}

func TestLinesRejectsEmpty(t *testing.T) {
	_, err := Lines(nil)
	require.Error(t, err)
}

func TestNormalizeLine(t *testing.T) {
	assert.Equal(t, "1 семестр", NormalizeLine("  1 семестр  "))
	assert.Equal(t, "", NormalizeLine("   \t  "))

	// Decomposed Cyrillic "й" (и + combining breve) becomes the composed form.
	decomposed := "й"
	assert.Equal(t, "й", NormalizeLine(decomposed))
}
