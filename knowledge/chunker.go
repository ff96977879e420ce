package knowledge

import "strings"

// defaultChunkSize is the target chunk length in runes. Paragraphs are
// merged up to this size; longer paragraphs are hard-split.
const defaultChunkSize = 1200

// splitText breaks a document into chunks along paragraph boundaries.
// Consecutive short paragraphs are merged until they would exceed
// chunkSize; a single oversized paragraph is split at rune boundaries.
func splitText(text string, chunkSize int) []string {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		runes := []rune(para)
		if len(runes) > chunkSize {
			flush()
			for len(runes) > chunkSize {
				chunks = append(chunks, string(runes[:chunkSize]))
				runes = runes[chunkSize:]
			}
			if len(runes) > 0 {
				chunks = append(chunks, string(runes))
			}
			continue
		}

		if current.Len() > 0 && current.Len()+len(para)+2 > chunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}
