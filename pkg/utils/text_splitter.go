package utils

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// PolicyChunkSize and PolicyChunkOverlap size knowledge-base chunks.
	PolicyChunkSize    = 512
	PolicyChunkOverlap = 50

	// SessionChunkSize and SessionChunkOverlap size stored session history chunks.
	SessionChunkSize    = 1500
	SessionChunkOverlap = 200
)

// SplitText splits text into chunks of roughly chunkSize characters with overlap,
// preferring paragraph, then line, then word boundaries. Blank chunks are dropped.
func SplitText(text string, chunkSize int, overlap int) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if overlap >= chunkSize {
		overlap = 0
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(overlap),
	)
	chunks, err := splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	out := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out, nil
}
