package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/archon-labs/raglite/internal/chunker"
	"github.com/archon-labs/raglite/internal/core/domain"
	"github.com/archon-labs/raglite/internal/core/ports/driven"
	"github.com/archon-labs/raglite/internal/core/ports/driving"
	"github.com/archon-labs/raglite/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// Embedding retry policy during ingestion. Retries are bounded; after
// exhausting them the document is left partially indexed (full-text
// only) rather than failing the whole ingestion.
const (
	embedRetries     = 3
	embedRetryDelay  = 200 * time.Millisecond
	embedRetryFactor = 2
)

// DocumentService owns the document lifecycle. Every mutation keeps the
// chunk store and both indexes consistent: re-chunking a document
// removes all prior chunks and index entries before inserting new ones,
// inside one store transaction where the backend supports it.
type DocumentService struct {
	store    driven.ChunkStore
	fulltext driven.FullTextIndex
	vectors  driven.VectorIndex
	embedder driven.EmbeddingService
	splitter *chunker.Chunker

	// writers serialises mutations per document ID. Mutations on
	// different documents proceed concurrently.
	writers keyedMutex
}

// NewDocumentService creates a document lifecycle manager.
// vectors and embedder are optional (can be nil); without them
// documents are indexed full-text only.
func NewDocumentService(
	store driven.ChunkStore,
	fulltext driven.FullTextIndex,
	vectors driven.VectorIndex,
	embedder driven.EmbeddingService,
	splitter *chunker.Chunker,
) *DocumentService {
	return &DocumentService{
		store:    store,
		fulltext: fulltext,
		vectors:  vectors,
		embedder: embedder,
		splitter: splitter,
	}
}

// Create ingests a new document.
func (s *DocumentService) Create(ctx context.Context, req driving.CreateRequest) (*domain.Document, error) {
	if req.URI == "" {
		return nil, fmt.Errorf("%w: document URI is required", domain.ErrInvalidInput)
	}

	unlock := s.writers.Lock(req.URI)
	defer unlock()

	existing, err := s.store.GetDocumentByURI(ctx, req.URI)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing document: %w", err)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		URI:      req.URI,
		Title:    req.Title,
		Content:  req.Content,
		Metadata: req.Metadata,
	}

	if existing != nil {
		if !req.Overwrite {
			return nil, fmt.Errorf("%w: document with URI %q", domain.ErrAlreadyExists, req.URI)
		}
		doc.ID = existing.ID
		doc.CreatedAt = existing.CreatedAt
	} else {
		doc.ID = uuid.New().String()
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	doc.ContentHash = domain.HashContent(req.Content)

	// The URI lock only guards the duplicate check; writers for the
	// same document key on its ID. Locking both keeps an overwrite
	// from interleaving with a concurrent Update or Delete.
	unlockDoc := s.writers.Lock(doc.ID)
	defer unlockDoc()

	logger.Section("Document Ingestion")
	logger.Info("Ingesting %s (%d bytes)", doc.URI, len(doc.Content))

	if err := s.ingest(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update re-ingests a document's content. Identical content is a no-op:
// chunk IDs and index entries remain untouched.
func (s *DocumentService) Update(ctx context.Context, id, title, content string) (*domain.Document, error) {
	unlock := s.writers.Lock(id)
	defer unlock()

	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	hash := domain.HashContent(content)
	if hash == doc.ContentHash {
		logger.Debug("Update %s: content unchanged, no-op", id)
		return doc, nil
	}

	doc.Content = content
	doc.ContentHash = hash
	if title != "" {
		doc.Title = title
	}
	doc.UpdatedAt = time.Now().UTC()

	logger.Info("Re-indexing %s after content change", doc.URI)
	if err := s.ingest(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes a document, its chunks and all index entries.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	unlock := s.writers.Lock(id)
	defer unlock()

	if _, err := s.store.GetDocument(ctx, id); err != nil {
		return err
	}

	return s.atomically(ctx, func(ctx context.Context) error {
		if s.vectors != nil {
			if err := s.vectors.RemoveByDocument(ctx, id); err != nil {
				return fmt.Errorf("remove vectors: %w", err)
			}
		}
		if err := s.fulltext.RemoveByDocument(ctx, id); err != nil {
			return fmt.Errorf("remove full-text entries: %w", err)
		}
		if err := s.store.DeleteDocument(ctx, id); err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		return nil
	})
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// GetByURI retrieves a document by its source locator.
func (s *DocumentService) GetByURI(ctx context.Context, uri string) (*domain.Document, error) {
	return s.store.GetDocumentByURI(ctx, uri)
}

// List returns all documents.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.store.ListDocuments(ctx)
}

// ingest runs the chunk/embed/index pipeline for doc. Embedding happens
// before the storage transaction so no network call runs inside it; the
// transaction is the atomicity and cancellation boundary for readers.
func (s *DocumentService) ingest(ctx context.Context, doc *domain.Document) error {
	segments := s.splitter.Chunk(doc.Content)
	logger.Debug("Chunked %s into %d segments", doc.URI, len(segments))

	now := time.Now().UTC()
	chunks := make([]domain.Chunk, len(segments))
	for i, seg := range segments {
		chunks[i] = domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Content:    seg.Text,
			Position:   i,
			TokenCount: seg.TokenCount,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}

	doc.Status = domain.StatusIndexed
	if s.embedder != nil {
		if err := s.embedChunks(ctx, chunks); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Bounded retries exhausted: keep the document full-text
			// searchable and surface the partial status to the caller.
			logger.Warn("Embedding failed for %s, indexing full-text only: %v", doc.URI, err)
			doc.Status = domain.StatusPartial
		}
	} else if s.vectors != nil {
		doc.Status = domain.StatusPartial
	}

	return s.atomically(ctx, func(ctx context.Context) error {
		// Remove all prior state for this document before inserting the
		// replacement - readers observe either the fully-old or the
		// fully-new index state, never a mix.
		if s.vectors != nil {
			if err := s.vectors.RemoveByDocument(ctx, doc.ID); err != nil {
				return fmt.Errorf("remove old vectors: %w", err)
			}
		}
		if err := s.fulltext.RemoveByDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("remove old full-text entries: %w", err)
		}
		if err := s.store.DeleteChunks(ctx, doc.ID); err != nil {
			return fmt.Errorf("delete old chunks: %w", err)
		}

		if err := s.store.SaveDocument(ctx, doc); err != nil {
			return fmt.Errorf("save document: %w", err)
		}
		if err := s.store.SaveChunks(ctx, chunks); err != nil {
			return fmt.Errorf("save chunks: %w", err)
		}

		for _, chunk := range chunks {
			if err := s.fulltext.Upsert(ctx, chunk); err != nil {
				return fmt.Errorf("index chunk %s: %w", chunk.ID, err)
			}
		}
		if s.vectors != nil {
			for _, chunk := range chunks {
				if chunk.Embedding == nil {
					continue
				}
				if err := s.vectors.Upsert(ctx, chunk.ID, chunk.Embedding); err != nil {
					return fmt.Errorf("add vector %s: %w", chunk.ID, err)
				}
			}
		}
		return nil
	})
}

// embedChunks generates embeddings for every chunk with bounded
// per-chunk retries. The first chunk that exhausts its retries aborts:
// a partially embedded document is marked partial as a whole.
func (s *DocumentService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	for i := range chunks {
		embedding, err := s.embedWithRetry(ctx, chunks[i].Content)
		if err != nil {
			return fmt.Errorf("%w: chunk %d: %w", domain.ErrProviderUnavailable, i, err)
		}
		chunks[i].Embedding = embedding
	}
	return nil
}

// embedWithRetry calls the embedding provider with exponential backoff.
// Cancellation is honoured at every suspension point.
func (s *DocumentService) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	delay := embedRetryDelay
	var lastErr error

	for attempt := 0; attempt < embedRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= embedRetryFactor
		}

		embedding, err := s.embedder.Embed(ctx, text)
		if err == nil {
			return embedding, nil
		}
		lastErr = err
		logger.Debug("Embed attempt %d failed: %v", attempt+1, err)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// atomically runs fn inside a store transaction when the backend
// supports one; otherwise fn runs directly and partial failures rely on
// the next ingest or rebuild for cleanup.
func (s *DocumentService) atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := s.store.(driven.Transactional); ok {
		return tx.WithTx(ctx, fn)
	}
	return fn(ctx)
}

// RebuildIndexes re-derives both indexes from the chunk store. Chunks
// without a stored vector are re-embedded when a provider is available.
func (s *DocumentService) RebuildIndexes(ctx context.Context) error {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	logger.Section("Index Rebuild")
	logger.Info("Rebuilding indexes for %d documents", len(docs))

	for i := range docs {
		if err := s.rebuildDocument(ctx, &docs[i]); err != nil {
			return fmt.Errorf("rebuild %s: %w", docs[i].ID, err)
		}
	}
	return nil
}

// rebuildDocument restores one document's index entries from its
// persisted chunks.
func (s *DocumentService) rebuildDocument(ctx context.Context, doc *domain.Document) error {
	unlock := s.writers.Lock(doc.ID)
	defer unlock()

	chunks, err := s.store.GetChunks(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("get chunks: %w", err)
	}

	// Re-embed what is missing, outside the transaction.
	embedded := true
	if s.embedder != nil {
		for i := range chunks {
			if chunks[i].Embedding != nil {
				continue
			}
			embedding, err := s.embedWithRetry(ctx, chunks[i].Content)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("Re-embed failed for chunk %s: %v", chunks[i].ID, err)
				embedded = false
				continue
			}
			chunks[i].Embedding = embedding
			chunks[i].UpdatedAt = time.Now().UTC()
		}
	} else {
		for i := range chunks {
			if chunks[i].Embedding == nil {
				embedded = false
				break
			}
		}
	}

	status := domain.StatusIndexed
	if !embedded && s.vectors != nil {
		status = domain.StatusPartial
	}

	return s.atomically(ctx, func(ctx context.Context) error {
		if s.vectors != nil {
			if err := s.vectors.RemoveByDocument(ctx, doc.ID); err != nil {
				return fmt.Errorf("clear vectors: %w", err)
			}
		}
		if err := s.fulltext.RemoveByDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("clear full-text entries: %w", err)
		}

		if doc.Status != status {
			doc.Status = status
			doc.UpdatedAt = time.Now().UTC()
			if err := s.store.SaveDocument(ctx, doc); err != nil {
				return fmt.Errorf("save document: %w", err)
			}
		}
		if err := s.store.SaveChunks(ctx, chunks); err != nil {
			return fmt.Errorf("save chunks: %w", err)
		}

		for _, chunk := range chunks {
			if err := s.fulltext.Upsert(ctx, chunk); err != nil {
				return fmt.Errorf("index chunk %s: %w", chunk.ID, err)
			}
			if s.vectors != nil && chunk.Embedding != nil {
				if err := s.vectors.Upsert(ctx, chunk.ID, chunk.Embedding); err != nil {
					return fmt.Errorf("add vector %s: %w", chunk.ID, err)
				}
			}
		}
		return nil
	})
}

// Verify checks that every chunk in the store has its expected index
// entries. Inconsistencies are reported, never silently ignored; a
// rebuild repairs them.
func (s *DocumentService) Verify(ctx context.Context) (*driving.VerifyReport, error) {
	ftsInspector, ftsOK := s.fulltext.(driven.IndexInspector)
	var vecInspector driven.IndexInspector
	vecOK := false
	if s.vectors != nil {
		vecInspector, vecOK = s.vectors.(driven.IndexInspector)
	}
	if !ftsOK && !vecOK {
		return nil, fmt.Errorf("%w: indexes do not support inspection", domain.ErrInvalidInput)
	}

	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	report := &driving.VerifyReport{}
	for i := range docs {
		chunks, err := s.store.GetChunks(ctx, docs[i].ID)
		if err != nil {
			return nil, fmt.Errorf("get chunks: %w", err)
		}

		consistent := true
		for _, chunk := range chunks {
			report.ChunksChecked++

			if ftsOK {
				ok, err := ftsInspector.Has(ctx, chunk.ID)
				if err != nil {
					return nil, fmt.Errorf("inspect full-text index: %w", err)
				}
				if !ok {
					consistent = false
				}
			}
			if vecOK && chunk.Embedding != nil {
				ok, err := vecInspector.Has(ctx, chunk.ID)
				if err != nil {
					return nil, fmt.Errorf("inspect vector index: %w", err)
				}
				if !ok {
					consistent = false
				}
			}
		}

		report.DocumentsChecked++
		if !consistent {
			logger.Warn("Document %s: %v", docs[i].ID, domain.ErrIndexInconsistent)
			report.Inconsistent = append(report.Inconsistent, docs[i].ID)
		}
	}
	return report, nil
}
