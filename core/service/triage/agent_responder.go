package triage

import (
	"context"
	"fmt"
	"strings"

	"agent_server/core/domain"
	"agent_server/core/port/out"
	"agent_server/pkg/logger"
)

// FailureResponse is the only failure detail a customer ever sees; the real
// cause is logged, not returned.
const FailureResponse = "We encountered an issue processing your request."

// Responder produces the outgoing reply text. Order and inquiry replies are
// synthesized through the completion collaborator; complaint, status and
// unknown replies are canned.
type Responder struct {
	completion out.CompletionPort
	prompts    out.PromptRepository
}

func NewResponder(completion out.CompletionPort, prompts out.PromptRepository) *Responder {
	return &Responder{completion: completion, prompts: prompts}
}

// Synthesize fills in the response for msg according to its category. It
// never fails the pipeline: any collaborator error degrades to the generic
// failure message.
func (r *Responder) Synthesize(ctx context.Context, msg *domain.CustomerMessage) *domain.CustomerMessage {
	updated := msg.Clone()

	var text string
	var err error
	switch updated.Category {
	case domain.CategoryComplaint:
		text = r.complaintReply(updated)
	case domain.CategoryStatus:
		text = r.statusReply(updated)
	case domain.CategoryUnknown:
		text = r.unknownReply(updated)
	case domain.CategoryOrder:
		text, err = r.generate(ctx, PromptOrderResponse, updated)
	case domain.CategoryInquiry:
		text, err = r.generate(ctx, PromptInquiryResponse, updated)
	case domain.CategoryOrderInquiry:
		text, err = r.generate(ctx, PromptCombinedResponse, updated)
	default:
		text = r.unknownReply(updated)
	}
	if err != nil {
		logger.WithStage("synthesize").WithError(err).Error("response generation failed")
		text = FailureResponse
	}

	updated.AppendResponse(text)
	return updated
}

// Unverified produces the fallback reply used when category verification
// failed and the pipeline was short-circuited.
func (r *Responder) Unverified(msg *domain.CustomerMessage) *domain.CustomerMessage {
	updated := msg.Clone()
	updated.AppendResponse(r.unknownReply(updated))
	return updated
}

func (r *Responder) generate(ctx context.Context, promptName string, msg *domain.CustomerMessage) (string, error) {
	userPrompt, err := loadPrompt(ctx, r.prompts, promptName, map[string]string{
		"category":                      string(msg.Category),
		"first_name":                    orNone(msg.FirstName),
		"last_name":                     orNone(msg.LastName),
		"title":                         orNone(msg.Title),
		"occasion":                      orNone(msg.Occasion),
		"questions_list":                strings.Join(msg.Questions, ", "),
		"products_purchase_list":        formatPurchases(msg.ProductsPurchase),
		"products_inquiry_list":         formatReferences(msg.ProductsInquiry),
		"products_recommendations_list": formatReferences(msg.ProductsRecommendations),
	})
	if err != nil {
		return "", err
	}

	// Final synthesis is the one plain-text completion in the pipeline.
	text, err := r.completion.Complete(ctx, systemPrompt(ctx, r.prompts, PromptResponseSystem), userPrompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty completion for %s", promptName)
	}
	return strings.TrimSpace(text), nil
}

func (r *Responder) complaintReply(msg *domain.CustomerMessage) string {
	return greeting(msg) + "\n\n" +
		"We are deeply sorry to hear about your concern. Resolving your issue is our highest priority, " +
		"and our team is actively looking into it. We will get back to you shortly with a resolution.\n\n" +
		"Thank you for your patience,\nCustomer Support"
}

func (r *Responder) statusReply(msg *domain.CustomerMessage) string {
	return greeting(msg) + "\n\n" +
		"Thank you for reaching out regarding your order status. We are working to provide you with the details " +
		"as soon as possible and appreciate your patience. Our team is here to support you.\n\n" +
		"Best regards,\nCustomer Support"
}

func (r *Responder) unknownReply(msg *domain.CustomerMessage) string {
	return greeting(msg) + "\n\n" +
		"Thank you for contacting us. We are reviewing your message and will address your inquiry shortly. " +
		"Please bear with us as we ensure we fully understand your needs.\n\n" +
		"Kind regards,\nCustomer Support"
}

func greeting(msg *domain.CustomerMessage) string {
	if msg.FirstName != "" {
		return "Dear " + msg.FirstName + ","
	}
	return "Dear Customer,"
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}

// formatPurchases renders purchase references with fulfillment quantities.
func formatPurchases(products []domain.Product) string {
	parts := make([]string, 0, len(products))
	for _, p := range products {
		parts = append(parts, fmt.Sprintf("%s (quantity: %d, filled: %d, unfilled: %d, price: $%d)",
			referenceName(p), p.Quantity, p.Filled, p.Unfilled, p.Price))
	}
	return strings.Join(parts, ", ")
}

// formatReferences renders inquiry and recommendation references.
func formatReferences(products []domain.Product) string {
	parts := make([]string, 0, len(products))
	for _, p := range products {
		parts = append(parts, fmt.Sprintf("%s: %s, price: $%d", referenceName(p), p.Description, p.Price))
	}
	return strings.Join(parts, ", ")
}

func referenceName(p domain.Product) string {
	if p.Name != "" {
		return p.Name
	}
	if p.Description != "" {
		return p.Description
	}
	return "unidentified product"
}
