package triage

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"agent_server/core/domain"
	"agent_server/core/port/out"
	"agent_server/pkg/logger"
)

// Extractor pulls structured details out of the email body. Which extractors
// run depends on the category; each one is individually fault tolerant, so a
// failed extractor leaves the record's defaults in place.
type Extractor struct {
	completion out.CompletionPort
	prompts    out.PromptRepository
}

func NewExtractor(completion out.CompletionPort, prompts out.PromptRepository) *Extractor {
	return &Extractor{completion: completion, prompts: prompts}
}

type subExtractor struct {
	name string
	run  func(ctx context.Context, msg *domain.CustomerMessage) error
}

// Extract runs the category-dependent extractor set against msg, mutating the
// returned snapshot in place per sub-extractor. Individual failures are
// logged and skipped; Extract itself only fails if msg is nil.
func (e *Extractor) Extract(ctx context.Context, msg *domain.CustomerMessage) (*domain.CustomerMessage, error) {
	if msg == nil {
		return nil, fmt.Errorf("extract: nil message")
	}
	updated := msg.Clone()

	subs := []subExtractor{
		{"name_title", e.extractNameTitle},
		{"occasion", e.extractOccasion},
		{"questions", e.extractQuestions},
	}
	switch updated.Category {
	case domain.CategoryOrder:
		subs = append(subs, subExtractor{"orders", e.extractOrders})
	case domain.CategoryInquiry:
		subs = append(subs, subExtractor{"inquiries", e.extractInquiries})
	case domain.CategoryOrderInquiry:
		subs = append(subs, subExtractor{"orders_inquiries", e.extractCombined})
	}

	for _, sub := range subs {
		if err := sub.run(ctx, updated); err != nil {
			logger.WithStage("extract").WithError(err).Warn("extractor %s failed, keeping defaults", sub.name)
		}
	}
	return updated, nil
}

func (e *Extractor) complete(ctx context.Context, promptName string, msg *domain.CustomerMessage, into any) error {
	userPrompt, err := loadPrompt(ctx, e.prompts, promptName, map[string]string{
		"subject": msg.Subject,
		"message": msg.Body,
	})
	if err != nil {
		return err
	}
	raw, err := e.completion.CompleteJSON(ctx, "", userPrompt)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripFence(raw)), into); err != nil {
		return fmt.Errorf("parse %s response: %w", promptName, err)
	}
	return nil
}

func (e *Extractor) extractNameTitle(ctx context.Context, msg *domain.CustomerMessage) error {
	var parsed struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Title     string `json:"title"`
	}
	if err := e.complete(ctx, PromptExtractNameTitle, msg, &parsed); err != nil {
		return err
	}
	if first := noneToEmpty(parsed.FirstName); first != "" {
		msg.FirstName = first
		msg.LastName = noneToEmpty(parsed.LastName)
		msg.Title = noneToEmpty(parsed.Title)
	}
	return nil
}

func (e *Extractor) extractOccasion(ctx context.Context, msg *domain.CustomerMessage) error {
	var parsed struct {
		Occasion string `json:"occasion"`
	}
	if err := e.complete(ctx, PromptExtractOccasion, msg, &parsed); err != nil {
		return err
	}
	if occasion := noneToEmpty(parsed.Occasion); occasion != "" {
		msg.Occasion = occasion
	}
	return nil
}

func (e *Extractor) extractQuestions(ctx context.Context, msg *domain.CustomerMessage) error {
	var parsed struct {
		Questions []string `json:"questions"`
	}
	if err := e.complete(ctx, PromptExtractQuestions, msg, &parsed); err != nil {
		return err
	}
	if len(parsed.Questions) > 0 {
		msg.Questions = parsed.Questions
	}
	return nil
}

func (e *Extractor) extractOrders(ctx context.Context, msg *domain.CustomerMessage) error {
	var parsed struct {
		Products []extractedProduct `json:"products"`
	}
	if err := e.complete(ctx, PromptExtractOrders, msg, &parsed); err != nil {
		return err
	}
	msg.ProductsPurchase = toDomainProducts(parsed.Products)
	return nil
}

func (e *Extractor) extractInquiries(ctx context.Context, msg *domain.CustomerMessage) error {
	var parsed struct {
		Products []extractedProduct `json:"products"`
	}
	if err := e.complete(ctx, PromptExtractInquiries, msg, &parsed); err != nil {
		return err
	}
	msg.ProductsInquiry = toDomainProducts(parsed.Products)
	return nil
}

func (e *Extractor) extractCombined(ctx context.Context, msg *domain.CustomerMessage) error {
	var parsed struct {
		Purchase []extractedProduct `json:"products_purchase"`
		Inquiry  []extractedProduct `json:"products_inquiry"`
	}
	if err := e.complete(ctx, PromptExtractCombined, msg, &parsed); err != nil {
		return err
	}
	msg.ProductsPurchase = toDomainProducts(parsed.Purchase)
	msg.ProductsInquiry = toDomainProducts(parsed.Inquiry)
	return nil
}

func toDomainProducts(in []extractedProduct) []domain.Product {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Product, 0, len(in))
	for _, p := range in {
		d := p.toDomain()
		// A reference with nothing to resolve against is dropped here,
		// before it can poison deduplication.
		if d.ProductID == "" && d.Name == "" && d.Description == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}
