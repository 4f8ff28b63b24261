// Package gemini talks to Google's Gemini models for item classification and
// purchase narratives.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 30 * time.Second
)

// ErrDisabled is returned by every call of a client built without an API key.
var ErrDisabled = errors.New("gemini: no API key configured")

type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration

	// BaseURL and HTTPClient override the endpoint, mostly for tests.
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	genai   *genai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// New builds a client. An empty API key is not an error: the returned client
// is disabled and fails every request with ErrDisabled.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger.With("component", "gemini"),
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if cfg.APIKey == "" {
		c.logger.Warn("no API key configured, AI features disabled")
		return c, nil
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.genai = gc
	return c, nil
}

// Enabled reports whether the client can reach the API.
func (c *Client) Enabled() bool {
	return c.genai != nil
}

func (c *Client) Model() string {
	return c.model
}

// Classify asks the model to pick one of categories for itemName. The reply
// is constrained to a JSON object {"category": "..."} whose value is one of
// the offered labels.
func (c *Client) Classify(ctx context.Context, itemName string, categories []string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	prompt := fmt.Sprintf("Categorize o item de compra %q em uma das seguintes categorias: %s.",
		itemName, strings.Join(categories, ", "))
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"category": {
					Type:        genai.TypeString,
					Description: "A categoria do item.",
					Enum:        categories,
				},
			},
			Required: []string{"category"},
		},
	}

	text, err := c.generate(ctx, prompt, config)
	if err != nil {
		return "", fmt.Errorf("classify %q: %w", itemName, err)
	}
	category, err := parseCategory(text)
	if err != nil {
		return "", fmt.Errorf("classify %q: %w", itemName, err)
	}
	c.logger.Debug("item classified", "item", itemName, "category", category)
	return category, nil
}

// Narrate sends a free-form prompt and returns the model's text answer.
func (c *Client) Narrate(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	text, err := c.generate(ctx, prompt, nil)
	if err != nil {
		return "", fmt.Errorf("narrate: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("narrate: empty response")
	}
	return text, nil
}

func (c *Client) generate(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		c.logger.Warn("generate content failed", "model", c.model, "error", err, "duration", time.Since(start))
		return "", err
	}
	c.logger.Debug("generate content", "model", c.model, "duration", time.Since(start))
	return resp.Text(), nil
}

type categoryReply struct {
	Category string `json:"category"`
}

// parseCategory extracts the category from the model reply. Replies wrapped
// in a markdown code fence are accepted.
func parseCategory(text string) (string, error) {
	text = stripFence(text)
	if text == "" {
		return "", errors.New("empty response")
	}
	var reply categoryReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return "", fmt.Errorf("decode category reply: %w", err)
	}
	return strings.TrimSpace(reply.Category), nil
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		// drop the language tag line
		text = text[i+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
