package models

// ChunkMetadata carries document-level provenance stored alongside each chunk.
// OriginalText preserves the segment exactly as produced by the chunker;
// Extra holds free-form fields (page counts, sheet names) from extraction.
type ChunkMetadata struct {
	SourceFilename string            `json:"source_filename"`
	DocumentTitle  string            `json:"document_title,omitempty"`
	OriginalText   string            `json:"original_text"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// DocumentChunk is the unit of embedding and retrieval. ID is the upsert key,
// derived deterministically from (course, document, position) so reprocessing
// a file supersedes its previous chunks. Text is the original (non-enriched)
// segment; only the enriched text is sent to the embedding provider.
type DocumentChunk struct {
	ID         string        `json:"id"`
	CourseID   string        `json:"course_id"`
	DocumentID string        `json:"document_id"`
	Text       string        `json:"text"`
	Embedding  []float32     `json:"embedding,omitempty"`
	Metadata   ChunkMetadata `json:"metadata"`
}

// SearchResult is a chunk returned by similarity search with its score,
// computed as 1 - cosine_distance (higher is more similar).
type SearchResult struct {
	ID         string        `json:"id"`
	DocumentID string        `json:"document_id"`
	Text       string        `json:"text"`
	Metadata   ChunkMetadata `json:"metadata"`
	Score      float64       `json:"score"`
}
