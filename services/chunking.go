package services

import "fmt"

// ChunkingService splits normalized text into overlapping fixed-size segments.
// Splitting is deterministic: identical input and geometry always produce
// identical segments.
type ChunkingService struct {
	chunkSize int
	overlap   int
}

// NewChunkingService validates chunk geometry. overlap >= chunkSize is a
// configuration error, not a runtime fault.
func NewChunkingService(chunkSize, overlap int) (*ChunkingService, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, chunk size), got %d", overlap)
	}
	return &ChunkingService{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split walks the text in windows of chunkSize characters, advancing by
// chunkSize-overlap each step. Whatever remains shorter than chunkSize becomes
// the final segment. Empty text yields no segments.
func (s *ChunkingService) Split(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= s.chunkSize {
		return []string{text}
	}

	step := s.chunkSize - s.overlap
	var segments []string
	i := 0
	for len(runes)-i > s.chunkSize {
		segments = append(segments, string(runes[i:i+s.chunkSize]))
		i += step
	}
	segments = append(segments, string(runes[i:]))

	return segments
}
