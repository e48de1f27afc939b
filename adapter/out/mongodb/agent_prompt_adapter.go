package mongodb

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"agent_server/core/domain"
)

const defaultPromptCollection = "prompts"

// PromptAdapter implements out.PromptRepository using MongoDB. Prompts are
// read-only for this service, so they are preloaded into memory once and
// served from there.
type PromptAdapter struct {
	collection *mongo.Collection

	mu      sync.RWMutex
	prompts map[string]domain.PromptTemplate
}

// NewPromptAdapter creates a prompt adapter over the given database.
func NewPromptAdapter(db *mongo.Database, collection string) *PromptAdapter {
	if collection == "" {
		collection = defaultPromptCollection
	}
	return &PromptAdapter{
		collection: db.Collection(collection),
		prompts:    make(map[string]domain.PromptTemplate),
	}
}

// Preload loads all production prompt documents for this project. It fails
// if the store holds none, since the pipeline cannot run without prompts.
func (a *PromptAdapter) Preload(ctx context.Context) error {
	cursor, err := a.collection.Find(ctx, bson.D{
		{Key: "project", Value: "customer_agent"},
		{Key: "type", Value: "production"},
	})
	if err != nil {
		return fmt.Errorf("find prompts: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []domain.PromptTemplate
	if err := cursor.All(ctx, &docs); err != nil {
		return fmt.Errorf("decode prompts: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no prompts found")
	}

	prompts := make(map[string]domain.PromptTemplate, len(docs))
	for _, doc := range docs {
		prompts[doc.Name] = doc
	}

	a.mu.Lock()
	a.prompts = prompts
	a.mu.Unlock()
	return nil
}

// Get returns the prompt template with the given name.
func (a *PromptAdapter) Get(ctx context.Context, name string) (domain.PromptTemplate, error) {
	a.mu.RLock()
	tpl, ok := a.prompts[name]
	a.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	// Fall through to the store for prompts added after preload.
	var doc domain.PromptTemplate
	err := a.collection.FindOne(ctx, bson.D{
		{Key: "prompt_name", Value: name},
		{Key: "project", Value: "customer_agent"},
		{Key: "type", Value: "production"},
	}).Decode(&doc)
	if err != nil {
		return domain.PromptTemplate{}, fmt.Errorf("prompt %q not found: %w", name, err)
	}

	a.mu.Lock()
	a.prompts[name] = doc
	a.mu.Unlock()
	return doc, nil
}
