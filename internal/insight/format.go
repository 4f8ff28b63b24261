package insight

import "strings"

type BlockKind string

const (
	BlockHeading   BlockKind = "heading"
	BlockParagraph BlockKind = "paragraph"
)

type Block struct {
	Kind BlockKind `json:"kind"`
	Text string    `json:"text"`
}

// Format splits a narrative into display blocks. Lines opening with "**" or
// a numbered marker ("1.", "12.") become headings with the bold markers
// removed; blank lines are dropped; everything else is a paragraph.
func Format(text string) []Block {
	blocks := []Block{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isHeading(line) {
			blocks = append(blocks, Block{Kind: BlockHeading, Text: strings.TrimSpace(strings.ReplaceAll(line, "**", ""))})
			continue
		}
		blocks = append(blocks, Block{Kind: BlockParagraph, Text: line})
	}
	return blocks
}

func isHeading(line string) bool {
	if strings.HasPrefix(line, "**") {
		return true
	}
	digits := 0
	for digits < len(line) && line[digits] >= '0' && line[digits] <= '9' {
		digits++
	}
	return digits > 0 && digits < len(line) && line[digits] == '.'
}
