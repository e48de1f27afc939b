package http

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent_server/core/agent"
	"agent_server/core/domain"
	"agent_server/infra/middleware"
	"agent_server/pkg/apperr"
)

// fakePipeline returns a fixed result or error for any message.
type fakePipeline struct {
	result func(msg *domain.CustomerMessage) *agent.Result
	err    error
}

func (f *fakePipeline) Run(ctx context.Context, msg *domain.CustomerMessage) (*agent.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result(msg), nil
}

func newTestApp(pipeline Pipeline) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(),
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
	NewEmailHandler(pipeline).Register(app)
	return app
}

func TestProcessEmailSuccess(t *testing.T) {
	pipeline := &fakePipeline{result: func(msg *domain.CustomerMessage) *agent.Result {
		out := msg.Clone()
		out.Category = domain.CategoryOrder
		out.FirstName = "Ada"
		out.AppendResponse("Thanks for your order!")
		return &agent.Result{
			Message:      out,
			Verification: domain.VerificationResult{Category: true, Name: true},
		}
	}}
	app := newTestApp(pipeline)

	body := `{"email_id": "e-42", "subject": "order", "message": "2 vases please"}`
	req := httptest.NewRequest("POST", "/process_email", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var parsed EmailResponse
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &parsed))

	assert.Equal(t, "e-42", parsed.EmailID)
	assert.Equal(t, "order", parsed.Category)
	assert.Equal(t, "Thanks for your order!", parsed.Response)
	assert.Equal(t, "Ada", parsed.FirstName)
	assert.True(t, parsed.VerificationResult.Category)
	assert.NotNil(t, parsed.ProductsPurchase, "list fields are [] not null")
}

func TestProcessEmailMissingID(t *testing.T) {
	app := newTestApp(&fakePipeline{})

	req := httptest.NewRequest("POST", "/process_email", strings.NewReader(`{"subject": "s", "message": "m"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestProcessEmailMalformedBody(t *testing.T) {
	app := newTestApp(&fakePipeline{})

	req := httptest.NewRequest("POST", "/process_email", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestProcessEmailRoutingErrorIsClientError(t *testing.T) {
	app := newTestApp(&fakePipeline{err: apperr.Routing("gibberish")})

	req := httptest.NewRequest("POST", "/process_email", strings.NewReader(`{"email_id": "e-1", "subject": "s", "message": "m"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	var parsed middleware.ErrorResponse
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, apperr.CodeRoutingError, parsed.Error.Code)
}

func TestProcessEmailInternalFailureIsOpaque(t *testing.T) {
	app := newTestApp(&fakePipeline{err: context.DeadlineExceeded})

	req := httptest.NewRequest("POST", "/process_email", strings.NewReader(`{"email_id": "e-1", "subject": "s", "message": "m"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(raw), "deadline", "internal detail never leaks to the caller")
}
