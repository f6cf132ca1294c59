package cli

import (
	"context"

	"github.com/archon-labs/raglite/internal/adapters/driven/storage/memory"
	"github.com/archon-labs/raglite/internal/chunker"
	"github.com/archon-labs/raglite/internal/core/domain"
	"github.com/archon-labs/raglite/internal/core/ports/driving"
	"github.com/archon-labs/raglite/internal/core/services"
)

// setupTestServices wires the commands to memory-backed services so
// commands execute without touching disk or network. The returned
// cleanup restores the uninitialised state.
func setupTestServices() func() {
	chunkStore := memory.NewChunkStore()
	fulltext := memory.NewFullTextIndex()
	splitter, _ := chunker.New(64, 8)

	documentService = services.NewDocumentService(chunkStore, fulltext, nil, nil, splitter)
	searchService = services.NewSearchService(chunkStore, fulltext, nil, nil, 0.5, 0.5)
	qaService = services.NewQAService(searchService, nil)

	return func() {
		documentService = nil
		searchService = nil
		qaService = nil
	}
}

// seedTestDocument indexes one document so search commands have
// something to find.
func seedTestDocument() (*domain.Document, error) {
	return documentService.Create(context.Background(), driving.CreateRequest{
		URI:     "file:///notes/quarterly-report.md",
		Title:   "Quarterly Report",
		Content: "Revenue grew twelve percent this quarter. Cloud subscriptions drove most of the growth while hardware sales stayed flat.",
	})
}
