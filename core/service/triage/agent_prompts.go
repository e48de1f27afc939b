// Package triage implements the LLM-backed stages of the email pipeline:
// classification, field extraction, verification and response synthesis.
package triage

import (
	"context"
	"strings"

	"agent_server/core/domain"
	"agent_server/core/port/out"
)

// Prompt document names, matching the prompt store's keyed layout.
const (
	PromptClassify         = "classify_email"
	PromptExtractNameTitle = "extract_name_title"
	PromptExtractOccasion  = "extract_occasion"
	PromptExtractQuestions = "extract_questions"
	PromptExtractOrders    = "extract_orders"
	PromptExtractInquiries = "extract_inquiries"
	PromptExtractCombined  = "extract_orders_inquiries"
	PromptVerifySystem     = "verify_customer_message_system"
	PromptVerifyCategory   = "verify_category"
	PromptVerifyExtracted  = "verify_remaining_extracted_data"
	PromptResponseSystem   = "response_system"
	PromptOrderResponse    = "order_response"
	PromptInquiryResponse  = "inquiry_response"
	PromptCombinedResponse = "orders_inquiry_response"
)

// render substitutes {key} placeholders in a prompt template.
func render(content string, vars map[string]string) string {
	for k, v := range vars {
		content = strings.ReplaceAll(content, "{"+k+"}", v)
	}
	return content
}

// loadPrompt fetches a template and renders it.
func loadPrompt(ctx context.Context, prompts out.PromptRepository, name string, vars map[string]string) (string, error) {
	tpl, err := prompts.Get(ctx, name)
	if err != nil {
		return "", err
	}
	return render(tpl.Content, vars), nil
}

// systemPrompt fetches a system-role template, or empty if missing. A missing
// system prompt degrades to a bare user prompt rather than failing the stage.
func systemPrompt(ctx context.Context, prompts out.PromptRepository, name string) string {
	tpl, err := prompts.Get(ctx, name)
	if err != nil || tpl.Role != "system" {
		return ""
	}
	return tpl.Content
}

// stripFence removes a markdown code fence the model sometimes wraps JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractedProduct is the wire shape a product reference takes in extractor
// and verifier payloads.
type extractedProduct struct {
	ProductID   string `json:"product_id"`
	Name        string `json:"product_name"`
	Description string `json:"product_description"`
	Quantity    int    `json:"quantity"`
}

func (p extractedProduct) toDomain() domain.Product {
	id := strings.ReplaceAll(strings.TrimSpace(p.ProductID), " ", "")
	if strings.EqualFold(id, "none") {
		id = ""
	}
	return domain.Product{
		ProductID:   id,
		Name:        noneToEmpty(p.Name),
		Description: noneToEmpty(p.Description),
		Quantity:    p.Quantity,
		OrderStatus: domain.OrderStatusNone,
	}
}

// noneToEmpty collapses the model's "none" sentinel to the empty string.
func noneToEmpty(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "none") {
		return ""
	}
	return s
}
