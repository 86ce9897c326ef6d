package domain

import "strings"

// DefaultChunkSize matches the per-message limit of the output sink.
const DefaultChunkSize = 2000

// SplitDocument splits a digest document into chunks of at most limit
// characters, breaking only at line boundaries. Concatenating the chunks
// in order reproduces the document exactly: every line lands intact in
// exactly one chunk. A single line longer than the limit becomes its own
// chunk, since breaking mid-line is never allowed.
func SplitDocument(doc string, limit int) []string {
	if doc == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultChunkSize
	}

	var (
		chunks  []string
		current strings.Builder
	)

	for _, line := range strings.SplitAfter(doc, "\n") {
		if line == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(line) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(line)
		if current.Len() > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}
