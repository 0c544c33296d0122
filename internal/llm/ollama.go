package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultOllamaURL is the address of a local Ollama server.
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llama2"
)

// OllamaGenerator calls the Ollama /api/generate endpoint without streaming.
type OllamaGenerator struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaGenerator returns a generator bound to baseURL and model. A
// non-positive timeout selects DefaultTimeout.
func NewOllamaGenerator(baseURL, model string, timeout time.Duration) *OllamaGenerator {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OllamaGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	b, err := json.Marshal(ollamaRequest{Model: g.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", wrapError("ollama", fmt.Errorf("%w: %w", ErrServiceFailure, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(b))
	if err != nil {
		return "", wrapError("ollama", fmt.Errorf("%w: %w", ErrServiceFailure, err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", wrapError("ollama", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", wrapError("ollama", fmt.Errorf("%w: status %d: %s",
			ErrServiceFailure, resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// a body cut off by the client timeout surfaces here
		return "", wrapError("ollama", err)
	}
	return strings.TrimSpace(out.Response), nil
}
