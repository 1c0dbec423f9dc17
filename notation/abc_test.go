package notation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentRenderHeader(t *testing.T) {
	doc := NewDocument("G", 8)
	doc.Title = "Field recording 12"
	doc.Tempo = 96
	doc.Melody = []Token{NewNote(67, 4), NewNote(69, 2), NewRest(2), NewBar()}
	doc.Harmony = []Token{NewNote(55, 4), NewNote(45, 2), NewRest(2), NewBar()}

	assert := assert.New(t)
	lines := strings.Split(strings.TrimRight(doc.Render(), "\n"), "\n")
	assert.Equal([]string{
		"X:1",
		"T:Field recording 12",
		"M:4/4",
		"L:1/8",
		"Q:1/4=96",
		"K:G",
		"V:1",
		"G4 A2 z2 |",
		"V:2",
		"G,4 A,,2 z2 |",
	}, lines)
}

func TestDocumentRenderDefaults(t *testing.T) {
	doc := &Document{QValue: 8}

	assert := assert.New(t)
	rendered := doc.Render()
	assert.Contains(rendered, "T:"+DefaultTitle+"\n")
	assert.Contains(rendered, "Q:1/4=120\n")
	assert.Contains(rendered, "K:C\n")
}
