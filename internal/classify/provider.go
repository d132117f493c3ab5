package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// Provider is the interface for live text-classification backends.
type Provider interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	IsConfigured() bool
}

// BackendError is a failed backend call with the HTTP status and
// response body preserved for quota detection.
type BackendError struct {
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}

// IsQuotaError reports whether an error is a quota/rate-limit signal:
// HTTP 429, or a body mentioning quota exhaustion.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	be, ok := err.(*BackendError)
	if !ok {
		return false
	}
	if be.Status == http.StatusTooManyRequests {
		return true
	}
	body := strings.ToLower(be.Body)
	return strings.Contains(body, "quota") || strings.Contains(body, "resource_exhausted")
}

// OpenAIProvider scores items via the OpenAI chat completions API.
type OpenAIProvider struct {
	Model  string
	APIKey string
	client *http.Client
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(model, apiKeyEnv string, timeout time.Duration) *OpenAIProvider {
	return &OpenAIProvider{
		Model:  model,
		APIKey: os.Getenv(apiKeyEnv),
		client: &http.Client{Timeout: timeout},
	}
}

// IsConfigured checks if the API key is set.
func (o *OpenAIProvider) IsConfigured() bool {
	return o.APIKey != ""
}

// Generate sends a prompt to OpenAI and returns the response text.
func (o *OpenAIProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if o.APIKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	body := map[string]any{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "system", "content": "You are an expert in cybersecurity signal analysis, specializing in SaaS security, SSPM, and compliance."},
			{"role": "user", "content": prompt},
		},
		"max_tokens":      maxTokens,
		"temperature":     0.1,
		"response_format": map[string]string{"type": "json_object"},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &BackendError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}

	return result.Choices[0].Message.Content, nil
}

// GeminiProvider scores items via the Google Gemini generateContent API.
type GeminiProvider struct {
	Model  string
	APIKey string
	client *http.Client
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(model, apiKeyEnv string, timeout time.Duration) *GeminiProvider {
	return &GeminiProvider{
		Model:  model,
		APIKey: os.Getenv(apiKeyEnv),
		client: &http.Client{Timeout: timeout},
	}
}

// IsConfigured checks if the API key is set.
func (g *GeminiProvider) IsConfigured() bool {
	return g.APIKey != ""
}

// Generate sends a prompt to Gemini and returns the response text.
func (g *GeminiProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if g.APIKey == "" {
		return "", fmt.Errorf("Gemini API key not configured")
	}

	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"maxOutputTokens": maxTokens,
			"temperature":     0.1,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent",
		g.Model,
	)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &BackendError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in Gemini response")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

// CreateProvider selects a live backend based on configuration. Returns
// nil when no backend is available; the classifier then runs
// heuristic-only.
func CreateProvider(backend, openaiModel, apiKeyEnv, geminiModel, geminiKeyEnv string, timeout time.Duration) Provider {
	switch strings.ToLower(backend) {
	case "heuristic":
		log.Println("Classifier backend set to heuristic; skipping live providers")
		return nil
	case "gemini":
		p := NewGeminiProvider(geminiModel, geminiKeyEnv, timeout)
		if p.IsConfigured() {
			log.Printf("Using Gemini with model: %s", geminiModel)
			return p
		}
		log.Println("Gemini not configured, trying OpenAI fallback...")
		o := NewOpenAIProvider(openaiModel, apiKeyEnv, timeout)
		if o.IsConfigured() {
			log.Printf("Using OpenAI with model: %s", openaiModel)
			return o
		}
	default: // openai
		p := NewOpenAIProvider(openaiModel, apiKeyEnv, timeout)
		if p.IsConfigured() {
			log.Printf("Using OpenAI with model: %s", openaiModel)
			return p
		}
		log.Println("OpenAI not configured, trying Gemini fallback...")
		g := NewGeminiProvider(geminiModel, geminiKeyEnv, timeout)
		if g.IsConfigured() {
			log.Printf("Using Gemini with model: %s", geminiModel)
			return g
		}
	}

	log.Println("No live classification backend available; using heuristic scoring only.")
	return nil
}
