// Package recognize adapts the external recognition oracle into the uniform
// per-variant outcome shape the pipeline consumes.
package recognize

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/sheetscan/sheetscan/internal/domain"
	"github.com/sheetscan/sheetscan/internal/observability"
)

const (
	defaultModel       = "gemini-2.0-flash"
	defaultCallTimeout = 90 * time.Second

	// maxRetries bounds the throttle retries after the initial attempt.
	// Waits are 2^attempt seconds: 2s, 4s, 8s.
	maxRetries  = 3
	backoffBase = 2 * time.Second
)

// oracle performs one raw recognition call and returns the oracle's JSON
// response for the given variant hint (empty hint = auto-detect).
type oracle interface {
	generate(ctx context.Context, image []byte, hint domain.SheetVariant) ([]byte, error)
}

// Gateway wraps the oracle with throttle retry, response decoding and
// per-variant normalization.
type Gateway struct {
	oracle      oracle
	logger      *observability.Logger
	callTimeout time.Duration

	// sleep is indirected so tests can observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGateway creates a gateway backed by the Gemini API. A non-positive
// callTimeout falls back to the default.
func NewGateway(ctx context.Context, apiKey, model string, callTimeout time.Duration, logger *observability.Logger) (*Gateway, error) {
	if apiKey == "" {
		return nil, domain.ConfigError("recognition API key is empty", nil)
	}
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, domain.ConfigError("failed to create recognition client", err)
	}
	return newGateway(&geminiOracle{client: client, model: model}, callTimeout, logger), nil
}

func newGateway(o oracle, callTimeout time.Duration, logger *observability.Logger) *Gateway {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &Gateway{
		oracle:      o,
		logger:      logger.WithComponent("recognize"),
		callTimeout: callTimeout,
		sleep:       sleepCtx,
	}
}

// Recognize runs one image through the oracle and normalizes the result.
// Throttling failures are retried with exponential backoff; any other failure
// propagates immediately.
func (g *Gateway) Recognize(ctx context.Context, image []byte, hint domain.SheetVariant) (domain.RecognitionOutcome, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
		raw, err := g.oracle.generate(callCtx, image, hint)
		cancel()

		if err == nil {
			return decodeOutcome(raw, hint)
		}

		if !isThrottle(err) {
			return domain.RecognitionOutcome{}, domain.RecognitionError("oracle call failed", err)
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}

		wait := backoffBase << attempt
		g.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", wait).
			Msg("Oracle throttled, retrying")
		if err := g.sleep(ctx, wait); err != nil {
			return domain.RecognitionOutcome{}, err
		}
	}

	return domain.RecognitionOutcome{}, domain.RecognitionError("oracle call failed after retries", lastErr)
}

// isThrottle classifies rate-limit signals from the oracle client.
func isThrottle(err error) bool {
	if domain.IsThrottle(err) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// geminiOracle issues recognition calls against the Gemini API with a
// deterministic-leaning generation setting and a strict response schema.
type geminiOracle struct {
	client *genai.Client
	model  string
}

func (o *geminiOracle) generate(ctx context.Context, image []byte, hint domain.SheetVariant) ([]byte, error) {
	prompt, schema := schemaForHint(hint)

	m := o.client.GenerativeModel(o.model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	resp, err := m.GenerateContent(ctx,
		genai.Text(prompt),
		&genai.Blob{MIMEType: "image/jpeg", Data: image},
	)
	if err != nil {
		return nil, err
	}

	txt := firstText(resp)
	if txt == "" {
		return nil, domain.RecognitionError("oracle returned an empty response", nil)
	}
	return []byte(txt), nil
}

// Close releases the underlying oracle client, when it owns one.
func (g *Gateway) Close() error {
	if o, ok := g.oracle.(*geminiOracle); ok {
		return o.client.Close()
	}
	return nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
