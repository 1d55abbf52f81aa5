package services

import (
	"fmt"
	"sort"
	"strings"
)

// Contextualize prepends human-readable provenance to a segment so its
// embedding reflects both content and origin. The returned text is only sent
// to the embedding provider; the original segment is what gets stored.
func Contextualize(segment, documentTitle, sourceFilename string, extra map[string]string) string {
	var b strings.Builder

	b.WriteString("Source file: ")
	b.WriteString(sourceFilename)
	b.WriteString("\n")

	if documentTitle != "" {
		b.WriteString("Document title: ")
		b.WriteString(documentTitle)
		b.WriteString("\n")
	}

	// Sorted so the enriched text is deterministic for a given chunk.
	if len(extra) > 0 {
		keys := make([]string, 0, len(extra))
		for k := range extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("%s: %s\n", k, extra[k]))
		}
	}

	b.WriteString("\n")
	b.WriteString(segment)

	return b.String()
}
