package chunker

import (
	"regexp"
	"strings"
)

// paragraphBreak matches a blank-line boundary: two or more consecutive
// newlines, ignoring stray carriage returns from CRLF input.
var paragraphBreak = regexp.MustCompile(`(?:\r?\n){2,}`)

// ParagraphChunker splits a document into paragraph chunks. It imposes no
// maximum chunk length; an oversized paragraph stays one chunk.
type ParagraphChunker struct{}

func New() *ParagraphChunker { return &ParagraphChunker{} }

// Split returns the document's non-empty paragraphs in original order, each
// trimmed of surrounding whitespace. Repeated text is not deduplicated.
func (c *ParagraphChunker) Split(text string) []string {
	parts := paragraphBreak.Split(text, -1)
	chunks := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		chunks = append(chunks, p)
	}
	return chunks
}
