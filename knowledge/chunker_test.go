package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitText_Empty(t *testing.T) {
	assert.Empty(t, splitText("", 100))
	assert.Empty(t, splitText("\n\n  \n\n", 100))
}

func TestSplitText_SingleParagraph(t *testing.T) {
	chunks := splitText("Rücksendungen sind kostenlos.", 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Rücksendungen sind kostenlos.", chunks[0])
}

func TestSplitText_MergesShortParagraphs(t *testing.T) {
	text := "Erster Absatz.\n\nZweiter Absatz.\n\nDritter Absatz."
	chunks := splitText(text, 100)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "Erster Absatz.")
	assert.Contains(t, chunks[0], "Dritter Absatz.")
}

func TestSplitText_SplitsAtBudget(t *testing.T) {
	a := strings.Repeat("a", 60)
	b := strings.Repeat("b", 60)
	chunks := splitText(a+"\n\n"+b, 100)
	require.Len(t, chunks, 2)
	assert.Equal(t, a, chunks[0])
	assert.Equal(t, b, chunks[1])
}

func TestSplitText_HardSplitsOversizedParagraph(t *testing.T) {
	long := strings.Repeat("ä", 250) // multi-byte runes
	chunks := splitText(long, 100)
	require.Len(t, chunks, 3)
	assert.Len(t, []rune(chunks[0]), 100)
	assert.Len(t, []rune(chunks[2]), 50)
}
