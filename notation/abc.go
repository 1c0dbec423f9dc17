package notation

import (
	"fmt"
	"strings"
)

// DefaultTitle is used when no title is configured
const DefaultTitle = "Untitled transcription"

// DefaultTempo is the quarter-note BPM written to the header. One bar
// spans two seconds, so at 4/4 the quarter note is 120 BPM.
const DefaultTempo = 120

// Document is a complete two-voice score: header fields plus the melody
// and harmony token sequences.
type Document struct {
	Title   string  `json:"title"`
	Key     string  `json:"key"`
	Tempo   int     `json:"tempo"`
	QValue  int     `json:"q_value"`
	Melody  []Token `json:"melody"`
	Harmony []Token `json:"harmony"`
}

// NewDocument creates a document with default header fields filled in
func NewDocument(key string, qValue int) *Document {
	return &Document{
		Title:  DefaultTitle,
		Key:    key,
		Tempo:  DefaultTempo,
		QValue: qValue,
	}
}

// Render emits the ABC text: the fixed header block, then the two voices
func (d *Document) Render() string {
	title := d.Title
	if title == "" {
		title = DefaultTitle
	}
	key := d.Key
	if key == "" {
		key = "C"
	}
	tempo := d.Tempo
	if tempo <= 0 {
		tempo = DefaultTempo
	}

	var b strings.Builder
	fmt.Fprintf(&b, "X:1\n")
	fmt.Fprintf(&b, "T:%s\n", title)
	fmt.Fprintf(&b, "M:4/4\n")
	fmt.Fprintf(&b, "L:1/8\n")
	fmt.Fprintf(&b, "Q:1/4=%d\n", tempo)
	fmt.Fprintf(&b, "K:%s\n", key)
	fmt.Fprintf(&b, "V:1\n%s\n", RenderTokens(d.Melody, d.QValue))
	fmt.Fprintf(&b, "V:2\n%s\n", RenderTokens(d.Harmony, d.QValue))
	return b.String()
}
