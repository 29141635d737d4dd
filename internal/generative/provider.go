// Package generative is the LLM-backed day builder. It enhances the
// deterministic composition path with generated prose and falls back to it on
// any provider or parse failure; callers always receive a valid ready day.
package generative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Request is one text-generation call.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// TextProvider produces raw model output for a structured prompt.
type TextProvider interface {
	Generate(ctx context.Context, req Request) (string, error)
}

const defaultProviderTimeout = 90 * time.Second

// HTTPProvider calls an Ollama-compatible generation endpoint.
type HTTPProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewHTTPProvider builds a provider against baseURL with a bounded per-call
// timeout. A zero timeout falls back to the default ceiling.
func NewHTTPProvider(baseURL, model string, timeout time.Duration) *HTTPProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &HTTPProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Generate(ctx context.Context, genReq Request) (string, error) {
	type genBody struct {
		Model   string         `json:"model"`
		System  string         `json:"system,omitempty"`
		Prompt  string         `json:"prompt"`
		Stream  bool           `json:"stream"`
		Options map[string]int `json:"options,omitempty"`
	}
	type genResp struct {
		Response string `json:"response"`
		Error    string `json:"error"`
	}

	body := genBody{Model: p.model, System: genReq.System, Prompt: genReq.Prompt, Stream: false}
	if genReq.MaxTokens > 0 {
		body.Options = map[string]int{"num_predict": genReq.MaxTokens}
	}
	raw, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewBuffer(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("generate status %d", resp.StatusCode)
	}
	var out genResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", fmt.Errorf("generate error: %s", out.Error)
	}
	return out.Response, nil
}

// HealthPing checks /api/tags for the configured model's presence.
func (p *HTTPProvider) HealthPing(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider status %d", resp.StatusCode)
	}
	var data struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return err
	}
	want := strings.Split(p.model, ":")[0]
	for _, m := range data.Models {
		if strings.Split(m.Name, ":")[0] == want {
			return nil
		}
	}
	return fmt.Errorf("model %s not found", want)
}
