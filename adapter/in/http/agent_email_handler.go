// Package http contains the Fiber handlers for the inbound API.
package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"agent_server/core/agent"
	"agent_server/core/domain"
	"agent_server/pkg/apperr"
	"agent_server/pkg/logger"
)

// EmailRequest is the inbound payload: one email per request.
type EmailRequest struct {
	EmailID string `json:"email_id"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// EmailResponse is the structured record returned to the caller.
type EmailResponse struct {
	EmailID                 string                    `json:"email_id"`
	Category                string                    `json:"category"`
	Response                string                    `json:"response"`
	FirstName               string                    `json:"first_name"`
	LastName                string                    `json:"last_name"`
	Title                   string                    `json:"title"`
	History                 []string                  `json:"history"`
	ProductsPurchase        []domain.Product          `json:"products_purchase"`
	ProductsInquiry         []domain.Product          `json:"products_inquiry"`
	ProductsRecommendations []domain.Product          `json:"products_recommendations"`
	VerificationResult      domain.VerificationResult `json:"verification_result"`
}

// Pipeline runs one email through the triage and fulfillment stages.
type Pipeline interface {
	Run(ctx context.Context, msg *domain.CustomerMessage) (*agent.Result, error)
}

// EmailHandler processes inbound customer emails through the pipeline.
type EmailHandler struct {
	pipeline Pipeline
}

func NewEmailHandler(pipeline Pipeline) *EmailHandler {
	return &EmailHandler{pipeline: pipeline}
}

func (h *EmailHandler) Register(app *fiber.App) {
	app.Post("/process_email", h.ProcessEmail)
}

// ProcessEmail runs one pipeline pass for the posted email. The run is bound
// to the request context, so a client disconnect cancels pending collaborator
// calls; inventory already committed stays committed.
func (h *EmailHandler) ProcessEmail(c *fiber.Ctx) error {
	var req EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if req.EmailID == "" {
		return apperr.BadRequest("email_id is required")
	}

	msg := domain.NewCustomerMessage(req.EmailID, req.Subject, req.Message)

	result, err := h.pipeline.Run(c.Context(), msg)
	if err != nil {
		if apperr.IsRouting(err) {
			return err
		}
		logger.WithField("request_id", req.EmailID).WithError(err).Error("pipeline run failed")
		return apperr.Internal(err, "error processing email")
	}

	final := result.Message
	return c.JSON(EmailResponse{
		EmailID:                 final.ID,
		Category:                string(final.Category),
		Response:                final.Response,
		FirstName:               final.FirstName,
		LastName:                final.LastName,
		Title:                   final.Title,
		History:                 final.History,
		ProductsPurchase:        emptyIfNil(final.ProductsPurchase),
		ProductsInquiry:         emptyIfNil(final.ProductsInquiry),
		ProductsRecommendations: emptyIfNil(final.ProductsRecommendations),
		VerificationResult:      result.Verification,
	})
}

// emptyIfNil keeps list fields as [] rather than null in the JSON response.
func emptyIfNil(products []domain.Product) []domain.Product {
	if products == nil {
		return []domain.Product{}
	}
	return products
}
