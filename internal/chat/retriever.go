package chat

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
)

const supportCollection = "reflecto_support"

// Retriever wraps an embedded chromem-go vector store holding the support
// corpus (CBT exercises, grounding techniques, well-being guidance).
type Retriever struct {
	collection *chromem.Collection
}

// NewRetriever opens (or creates) a persistent vector store at dir.
func NewRetriever(dir string, embed chromem.EmbeddingFunc) (*Retriever, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	collection, err := db.GetOrCreateCollection(supportCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("open support collection: %w", err)
	}
	return &Retriever{collection: collection}, nil
}

// NewMemoryRetriever builds an in-memory retriever, used in tests and when no
// vector directory is configured.
func NewMemoryRetriever(embed chromem.EmbeddingFunc) (*Retriever, error) {
	collection, err := chromem.NewDB().GetOrCreateCollection(supportCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("open support collection: %w", err)
	}
	return &Retriever{collection: collection}, nil
}

// Add seeds documents into the support corpus.
func (r *Retriever) Add(ctx context.Context, ids []string, contents []string) error {
	if len(ids) != len(contents) {
		return fmt.Errorf("ids and contents length mismatch")
	}
	docs := make([]chromem.Document, 0, len(ids))
	for i := range ids {
		docs = append(docs, chromem.Document{ID: ids[i], Content: contents[i]})
	}
	if err := r.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("add support documents: %w", err)
	}
	return nil
}

// Query returns up to k passages most similar to text. chromem rejects
// queries for more results than documents stored, so k is clamped.
func (r *Retriever) Query(ctx context.Context, text string, k int) ([]string, error) {
	count := r.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}
	results, err := r.collection.Query(ctx, text, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query support corpus: %w", err)
	}
	passages := make([]string, 0, len(results))
	for _, result := range results {
		passages = append(passages, result.Content)
	}
	return passages, nil
}
