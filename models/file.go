package models

// CourseFile is a file reference as reported by the LMS. TimeModified is
// seconds since epoch and treated as an opaque monotonically-increasing value.
type CourseFile struct {
	CourseID     int64  `json:"course_id"`
	Filename     string `json:"filename"`
	FileURL      string `json:"file_url"`
	TimeModified int64  `json:"time_modified"`
}

// ProcessedFileRecord tracks the last successfully indexed version of a file.
// Written only after all of a file's chunks have been stored.
type ProcessedFileRecord struct {
	CourseID         int64  `json:"course_id"`
	FileIdentifier   string `json:"file_identifier"`
	SourceModifiedAt int64  `json:"source_modified_at"`
	ProcessedAt      int64  `json:"processed_at"`
}

// Per-file task states. A task moves through the intermediate states in order;
// FAILED is reachable from any of them until the tracker update commits.
const (
	StatePending     = "pending"
	StateExtracting  = "extracting"
	StateNormalizing = "normalizing"
	StateChunking    = "chunking"
	StateEmbedding   = "embedding"
	StateStoring     = "storing"
	StateCompleted   = "completed"
	StateFailed      = "failed"
)

// TaskResult is the terminal result of a file processing task, exposed through
// the task status endpoint. ChunksFailed distinguishes a file whose embeddings
// all failed from a genuinely empty file.
type TaskResult struct {
	State         string `json:"state"`
	CourseID      int64  `json:"course_id"`
	Filename      string `json:"filename"`
	ChunksWritten int    `json:"chunks_written"`
	ChunksFailed  int    `json:"chunks_failed"`
	ProcessedAt   int64  `json:"processed_at,omitempty"`
	Error         string `json:"error,omitempty"`
}
