// Package llm talks to an OpenAI-compatible chat-completions endpoint
// (LM Studio style). The service is a black box: requests go to
// {endpoint}/v1/chat/completions and the raw text of the first choice comes
// back. Failures never propagate as crashes; they degrade to a descriptive
// sentinel string that the extraction parser simply fails to parse.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"msvec/blocek/internal/logging"
	"msvec/blocek/internal/models"
	"msvec/blocek/internal/taxonomy"
)

// Generator is the text-generation surface the rest of the application
// depends on. It exists so the pipeline can be tested without a live model.
type Generator interface {
	// ParseReceiptText asks the model to extract purchase items from receipt
	// text and returns the raw response (or an error sentinel string).
	ParseReceiptText(ctx context.Context, text string, tax *taxonomy.Set) string

	// Summarize answers a free-form question about stored purchases.
	Summarize(ctx context.Context, question string, records []models.StoredRecord) string
}

// Options configures a Client.
type Options struct {
	Endpoint    string
	Model       string
	APIKey      string
	Temperature float32
	MaxTokens   int
	// Timeout bounds a single completion call. Model inference is slow, so
	// this is typically on the order of minutes.
	Timeout time.Duration
}

// Client is a Generator backed by a real chat-completions endpoint.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
	log         logging.Logger
}

// NewClient creates a Client for the given endpoint.
func NewClient(opts Options, log logging.Logger) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = strings.TrimRight(opts.Endpoint, "/") + "/v1"
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &Client{
		api:         openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		log:         log,
	}
}

// Complete sends one system+user exchange and returns the first choice's
// content. Transport failures, timeouts and bad statuses are all converted
// into the returned error.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// ParseReceiptText builds the extraction prompt around the taxonomy and runs
// it. On failure the error is logged and folded into the returned string; the
// extraction parser turns that into a recognized empty-items outcome.
func (c *Client) ParseReceiptText(ctx context.Context, text string, tax *taxonomy.Set) string {
	categories, err := json.MarshalIndent(tax.Categories(), "", "  ")
	if err != nil {
		categories = []byte("[]")
	}

	prompt := fmt.Sprintf(`
Extract a JSON list of items from this text.
Each item must have: product (string), price (number), category (string).
Choose category EXACTLY from this list:
%s

Return ONLY a JSON array like:
[{"product": "bread", "price": 1.5, "category": "grocery"}, ...]

Text:
%s
`, categories, text)

	out, err := c.Complete(ctx,
		"You are a JSON extractor. Return ONLY valid JSON array, no markdown, no explanation.",
		prompt,
	)
	if err != nil {
		c.log.WithError(err).Warn("Receipt extraction call failed")
		return fmt.Sprintf("(chat completion error: %v)", err)
	}
	return out
}

// Summarize answers a question about the stored purchases in the voice of a
// friendly Slovak tutor for children. With no records there is nothing to
// summarize and a canned reply is returned without calling the model.
func (c *Client) Summarize(ctx context.Context, question string, records []models.StoredRecord) string {
	if len(records) == 0 {
		return "Nemám žiadne záznamy o nákupoch, skús pridať bločky."
	}

	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("- %s (%s) %s€ | H:%d S:%d",
			r.Product, r.Category, r.Price.String(), r.HealthDelta, r.HappinessDelta))
	}

	prompt := fmt.Sprintf(`
Otázka používateľa: "%s"

Nákupy:
%s

ÚLOHA: Odpovedz po slovensky, ako keby si bol priateľský tutor pre deti.
Buď stručný (2-4 vety), vysvetli čo sa kupovalo, aké návyky z toho vidíme
a pridaj drobný tip. Neopakuj zadanie ani technické údaje.
`, question, strings.Join(lines, "\n"))

	out, err := c.Complete(ctx,
		"Si finančný sprievodca pre deti. Odpovedaj len po slovensky, láskavo, stručne a poučne.",
		prompt,
	)
	if err != nil {
		c.log.WithError(err).Warn("Summarize call failed")
		return fmt.Sprintf("(chat completion error: %v)", err)
	}
	return out
}
