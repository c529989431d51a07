// Package llm wraps the Anthropic client behind a small generation
// interface so callers never see SDK types and tests can swap in fakes.
package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/interstellar-mare/advisor/pkg/anthropic"
)

// GenerateRequest describes one text-generation call.
type GenerateRequest struct {
	System      string
	Messages    []anthropic.Message
	MaxTokens   int64
	Temperature *float64 // nil leaves the model default
	Phase       string   // label for cost logging, e.g. "chat", "tier"
}

// Generator produces model output. Generate returns plain text;
// GenerateStructured asks for JSON and decodes it into out.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	GenerateStructured(ctx context.Context, req GenerateRequest, out any) error
}

const defaultMaxTokens = 1024

// UserTurn builds a single-user-message conversation for one-shot prompts.
func UserTurn(prompt string) []anthropic.Message {
	return []anthropic.Message{{Role: "user", Content: prompt}}
}

// Float returns a pointer to v for optional request fields.
func Float(v float64) *float64 { return &v }

// AnthropicGenerator is the production Generator backed by the Anthropic API.
type AnthropicGenerator struct {
	client anthropic.Client
	model  string
}

// NewAnthropicGenerator creates an AnthropicGenerator using the given model.
func NewAnthropicGenerator(client anthropic.Client, model string) *AnthropicGenerator {
	return &AnthropicGenerator{client: client, model: model}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	var system []anthropic.SystemBlock
	if req.System != "" {
		system = []anthropic.SystemBlock{{Text: req.System}}
	}

	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       g.model,
		MaxTokens:   maxTokens,
		System:      system,
		Messages:    req.Messages,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: create message")
	}
	resp.Usage.LogCost(g.model, req.Phase)

	text := extractText(resp)
	if text == "" {
		return "", eris.New("llm: empty response")
	}
	return text, nil
}

func (g *AnthropicGenerator) GenerateStructured(ctx context.Context, req GenerateRequest, out any) error {
	text, err := g.Generate(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), out); err != nil {
		zap.L().Debug("undecodable structured response",
			zap.String("phase", req.Phase),
			zap.String("body", text),
		)
		return eris.Wrap(err, "llm: decode structured response")
	}
	return nil
}

// extractText concatenates the text blocks of a response.
func extractText(resp *anthropic.MessageResponse) string {
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

// cleanJSON strips markdown code fences and surrounding prose so the result
// starts at the first JSON value. Models wrap JSON in ```json fences often
// enough that decoding raw output fails.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)

	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}

	// Fall back to the first brace or bracket.
	if idx := strings.IndexAny(s, "{["); idx > 0 {
		s = s[idx:]
	}
	return strings.TrimSpace(s)
}
