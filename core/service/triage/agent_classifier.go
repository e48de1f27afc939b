package triage

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"agent_server/core/domain"
	"agent_server/core/port/out"
)

// Classifier assigns a triage category to an inbound email.
type Classifier struct {
	completion out.CompletionPort
	prompts    out.PromptRepository
}

func NewClassifier(completion out.CompletionPort, prompts out.PromptRepository) *Classifier {
	return &Classifier{completion: completion, prompts: prompts}
}

// Classify returns a snapshot with the category set. The classifier never
// guesses outside the enum: unparsable or unexpected output maps to UNKNOWN.
func (c *Classifier) Classify(ctx context.Context, msg *domain.CustomerMessage) (*domain.CustomerMessage, error) {
	userPrompt, err := loadPrompt(ctx, c.prompts, PromptClassify, map[string]string{
		"subject": msg.Subject,
		"message": msg.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	raw, err := c.completion.CompleteJSON(ctx, "", userPrompt)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	var parsed struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(stripFence(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("classify: parse response: %w", err)
	}

	updated := msg.Clone()
	updated.Category = domain.ParseCategory(parsed.Category)
	return updated, nil
}
