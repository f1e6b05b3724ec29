package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/akoreshkov/docfields/internal/infrastructure/resilience"
)

// Client calls the Gemini generateContent REST API. Retries for the
// extraction pipeline are owned by the task orchestrator, so the
// executor here runs a single attempt behind a circuit breaker and the
// client reports transient failures as temporary errors.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
	Executor *resilience.Executor
}

func New(options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(options.BaseURL, "/"),
		apiKey:     options.APIKey,
		model:      options.Model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.Executor,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}

	var response generateResponse
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, c.generatePath(), payload, &response, "generate")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "gemini_generate", call, classifyGeminiError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("generate content", err)
	}

	if len(response.Candidates) == 0 {
		return "", fmt.Errorf("gemini generate: no candidates in response")
	}

	var b strings.Builder
	for _, p := range response.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("gemini generate: empty candidate text")
	}
	return text, nil
}

func (c *Client) generatePath() string {
	return fmt.Sprintf("/v1beta/models/%s:generateContent", c.model)
}
