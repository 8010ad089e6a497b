package knowledge

import "strings"

// BuildContext renders the agent's custom instructions and retrieved
// reference material into one prompt block. Either part may be empty;
// when both are, the result is empty.
func BuildContext(instructions string, chunks []ScoredChunk) string {
	var b strings.Builder

	if strings.TrimSpace(instructions) != "" {
		b.WriteString("Custom Instructions:\n")
		b.WriteString(strings.TrimSpace(instructions))
		b.WriteString("\n\n")
	}

	for _, sc := range chunks {
		b.WriteString("--- ")
		b.WriteString(sc.FileTitle)
		b.WriteString(" ---\n")
		b.WriteString(sc.Chunk.Text)
		b.WriteString("\n--- End ---\n\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
