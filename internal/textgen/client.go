// Package textgen клиент REST API текстовых completions (OpenAI-совместимый).
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/magabrotheeeer/content-generator/internal/config"
	"github.com/magabrotheeeer/content-generator/internal/lib/metrics"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// Client вызывает эндпоинт /completions.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  map[models.UsageKind]int
	httpClient *http.Client
}

// New создаёт клиент по конфигурации.
func New(cfg config.TextGen) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		maxTokens: map[models.UsageKind]int{
			models.KindContent: cfg.ContentMaxTokens,
			models.KindCode:    cfg.CodeMaxTokens,
		},
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type completionRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate возвращает сгенерированный текст для prompt. Лимит токенов зависит от kind.
// Любая ошибка внешнего API оборачивается в models.ErrUpstreamFailure.
func (c *Client) Generate(ctx context.Context, kind models.UsageKind, prompt string) (string, error) {
	const op = "textgen.Generate"

	maxTokens, ok := c.maxTokens[kind]
	if !ok {
		return "", fmt.Errorf("%s: %w: unknown kind %q", op, models.ErrValidation, kind)
	}

	body, err := json.Marshal(completionRequest{Model: c.model, Prompt: prompt, MaxTokens: maxTokens})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.GenerationDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, models.ErrUpstreamFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, models.ErrUpstreamFailure, err)
	}

	var out completionResponse
	if err = json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%s: %w: decode response: %w", op, models.ErrUpstreamFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("%s: %w: %s", op, models.ErrUpstreamFailure, msg)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s: %w: empty choices", op, models.ErrUpstreamFailure)
	}
	return strings.TrimSpace(out.Choices[0].Text), nil
}
