package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"entrenai/internal/ai"
	"entrenai/internal/logger"
	"entrenai/models"
)

// FileDownloader fetches a file's bytes from the LMS.
type FileDownloader interface {
	Download(ctx context.Context, fileURL string) ([]byte, error)
}

// VectorStore is the write side of the chunk store as seen by the pipeline.
type VectorStore interface {
	EnsureCollection(ctx context.Context, courseID int64) error
	ReplaceFileChunks(ctx context.Context, courseID int64, documentID string, chunks []models.DocumentChunk) error
	MarkProcessed(ctx context.Context, courseID int64, fileIdentifier string, sourceModifiedAt int64) error
}

// FileProcessor runs the full ingestion pipeline for one file: download,
// extract, normalize, chunk, contextualize, embed, store, track. Steps run
// strictly sequentially; each step's output is the next step's input.
type FileProcessor struct {
	store      VectorStore
	provider   ai.Provider
	downloader FileDownloader
	extractor  *ContentExtractor
	normalizer *Normalizer
	chunker    *ChunkingService
}

func NewFileProcessor(store VectorStore, provider ai.Provider, downloader FileDownloader, extractor *ContentExtractor, chunker *ChunkingService) *FileProcessor {
	return &FileProcessor{
		store:      store,
		provider:   provider,
		downloader: downloader,
		extractor:  extractor,
		normalizer: NewNormalizer(provider),
		chunker:    chunker,
	}
}

// Process runs the pipeline for a single file. progress (optional) is invoked
// on every state transition. The tracker is updated only after the file's
// chunks are committed, so any earlier failure leaves the file eligible for
// retry on the next refresh trigger.
func (p *FileProcessor) Process(ctx context.Context, courseID int64, filename, fileURL string, sourceModifiedAt int64, progress func(stage string)) (*models.TaskResult, error) {
	report := func(stage string) {
		if progress != nil {
			progress(stage)
		}
	}

	result := &models.TaskResult{
		State:    models.StateFailed,
		CourseID: courseID,
		Filename: filename,
	}
	fail := func(err error) (*models.TaskResult, error) {
		result.Error = err.Error()
		return result, err
	}

	report(models.StateExtracting)
	data, err := p.downloader.Download(ctx, fileURL)
	if err != nil {
		return fail(fmt.Errorf("download failed: %w", err))
	}

	rawText, extra, err := p.extractor.Extract(ctx, filename, data)
	if err != nil {
		return fail(fmt.Errorf("extraction failed: %w", err))
	}

	// An empty file is not an error: it produces zero chunks and is still
	// marked processed so the refresh trigger stops re-dispatching it.
	var segments []string
	if strings.TrimSpace(rawText) != "" {
		report(models.StateNormalizing)
		markdown, err := p.normalizer.Normalize(ctx, rawText)
		if err != nil {
			return fail(err)
		}

		report(models.StateChunking)
		segments = p.chunker.Split(markdown)
	}

	report(models.StateEmbedding)
	title := documentTitle(filename)
	courseIDStr := strconv.FormatInt(courseID, 10)
	chunks := make([]models.DocumentChunk, 0, len(segments))

	for i, segment := range segments {
		enriched := Contextualize(segment, title, filename, extra)

		vec, err := p.provider.Embed(ctx, enriched)
		if err != nil {
			// Chunk-scoped failure: drop this chunk, keep the rest.
			logger.Warn("Embedding failed, dropping chunk",
				"course", courseID, "file", filename, "position", i, "error", err)
			result.ChunksFailed++
			continue
		}

		chunks = append(chunks, models.DocumentChunk{
			ID:         chunkID(courseID, filename, i),
			CourseID:   courseIDStr,
			DocumentID: filename,
			Text:       segment,
			Embedding:  vec,
			Metadata: models.ChunkMetadata{
				SourceFilename: filename,
				DocumentTitle:  title,
				OriginalText:   segment,
				Extra:          extra,
			},
		})
	}

	report(models.StateStoring)
	if err := p.store.EnsureCollection(ctx, courseID); err != nil {
		return fail(fmt.Errorf("ensure collection failed: %w", err))
	}
	if err := p.store.ReplaceFileChunks(ctx, courseID, filename, chunks); err != nil {
		return fail(fmt.Errorf("chunk write failed: %w", err))
	}
	if err := p.store.MarkProcessed(ctx, courseID, filename, sourceModifiedAt); err != nil {
		return fail(fmt.Errorf("tracker update failed: %w", err))
	}

	result.State = models.StateCompleted
	result.ChunksWritten = len(chunks)
	result.ProcessedAt = time.Now().Unix()
	result.Error = ""

	if result.ChunksFailed > 0 {
		logger.Warn("File processed with failed chunks",
			"course", courseID, "file", filename,
			"written", result.ChunksWritten, "failed", result.ChunksFailed)
	} else {
		logger.Info("File processed",
			"course", courseID, "file", filename, "chunks", result.ChunksWritten)
	}

	return result, nil
}

// chunkID derives a stable id from the chunk's coordinates so reprocessing a
// file upserts over its previous chunks instead of accumulating new rows.
func chunkID(courseID int64, documentID string, position int) string {
	name := fmt.Sprintf("entrenai://%d/%s#%d", courseID, documentID, position)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func documentTitle(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
