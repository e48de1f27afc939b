package triage

import (
	"context"

	"github.com/goccy/go-json"

	"agent_server/core/domain"
	"agent_server/core/port/out"
	"agent_server/pkg/logger"
)

// Verifier checks extracted claims against the source email through the
// completion collaborator. The policy is fail-closed: anything that cannot be
// parsed into the expected boolean shape counts as "not verified", so every
// failure path returns the all-false zero value.
type Verifier struct {
	completion out.CompletionPort
	prompts    out.PromptRepository
}

func NewVerifier(completion out.CompletionPort, prompts out.PromptRepository) *Verifier {
	return &Verifier{completion: completion, prompts: prompts}
}

// VerifyCategory checks the classified category against subject and body.
// Only the Category flag of the result is meaningful.
func (v *Verifier) VerifyCategory(ctx context.Context, msg *domain.CustomerMessage) domain.VerificationResult {
	var result domain.VerificationResult
	if msg.Body == "" {
		return result
	}

	claim, err := json.Marshal(map[string]string{"category": string(msg.Category)})
	if err != nil {
		return result
	}
	userPrompt, err := loadPrompt(ctx, v.prompts, PromptVerifyCategory, map[string]string{
		"subject":        msg.Subject,
		"email":          msg.Body,
		"extracted_info": string(claim),
	})
	if err != nil {
		logger.WithStage("verify_category").WithError(err).Error("prompt lookup failed")
		return result
	}

	raw, err := v.completion.CompleteJSON(ctx, systemPrompt(ctx, v.prompts, PromptVerifySystem), userPrompt)
	if err != nil {
		logger.WithStage("verify_category").WithError(err).Error("completion failed")
		return result
	}

	var parsed struct {
		Category *bool `json:"category"`
	}
	if err := json.Unmarshal([]byte(stripFence(raw)), &parsed); err != nil || parsed.Category == nil {
		logger.WithStage("verify_category").Warn("unparsable verification output, treating as unverified")
		return result
	}

	result.Category = *parsed.Category
	return result
}

// verifiedClaim is the round-tripped claim shape for full-record verification.
type verifiedClaim struct {
	FirstName        string             `json:"first_name"`
	LastName         string             `json:"last_name"`
	Title            string             `json:"title"`
	Occasion         string             `json:"occasion"`
	ProductsPurchase []extractedProduct `json:"products_purchase"`
	ProductsInquiry  []extractedProduct `json:"products_inquiry"`
}

// VerifyDetails checks the full extracted record. The category flag of the
// returned result is untouched (false); the orchestrator carries it over from
// category verification.
func (v *Verifier) VerifyDetails(ctx context.Context, msg *domain.CustomerMessage) domain.VerificationResult {
	var result domain.VerificationResult
	if msg.Body == "" {
		return result
	}

	claim := verifiedClaim{
		FirstName: msg.FirstName,
		LastName:  msg.LastName,
		Title:     msg.Title,
		Occasion:  msg.Occasion,
	}
	for _, p := range msg.ProductsPurchase {
		claim.ProductsPurchase = append(claim.ProductsPurchase, extractedProduct{
			ProductID: p.ProductID, Name: p.Name, Description: p.Description, Quantity: p.Quantity,
		})
	}
	for _, p := range msg.ProductsInquiry {
		claim.ProductsInquiry = append(claim.ProductsInquiry, extractedProduct{
			ProductID: p.ProductID, Name: p.Name, Description: p.Description, Quantity: p.Quantity,
		})
	}
	claimJSON, err := json.Marshal(claim)
	if err != nil {
		return result
	}

	userPrompt, err := loadPrompt(ctx, v.prompts, PromptVerifyExtracted, map[string]string{
		"subject":        msg.Subject,
		"email":          msg.Body,
		"extracted_info": string(claimJSON),
	})
	if err != nil {
		logger.WithStage("verify_details").WithError(err).Error("prompt lookup failed")
		return result
	}

	raw, err := v.completion.CompleteJSON(ctx, systemPrompt(ctx, v.prompts, PromptVerifySystem), userPrompt)
	if err != nil {
		logger.WithStage("verify_details").WithError(err).Error("completion failed")
		return result
	}

	var parsed struct {
		Name             *bool `json:"name"`
		Title            *bool `json:"title"`
		Occasion         *bool `json:"occasion"`
		ProductsPurchase *bool `json:"products_purchase"`
		ProductsInquiry  *bool `json:"products_inquiry"`
	}
	if err := json.Unmarshal([]byte(stripFence(raw)), &parsed); err != nil {
		logger.WithStage("verify_details").Warn("unparsable verification output, treating as unverified")
		return result
	}
	// Every flag must be present; a partial answer is not a verification.
	if parsed.Name == nil || parsed.Title == nil || parsed.Occasion == nil ||
		parsed.ProductsPurchase == nil || parsed.ProductsInquiry == nil {
		logger.WithStage("verify_details").Warn("incomplete verification output, treating as unverified")
		return result
	}

	result.Name = *parsed.Name
	result.Title = *parsed.Title
	result.Occasion = *parsed.Occasion
	result.ProductsPurchase = *parsed.ProductsPurchase
	result.ProductsInquiry = *parsed.ProductsInquiry
	return result
}
