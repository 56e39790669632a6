// Package openai implements the risk-analysis inference gateway on an
// OpenAI-compatible chat completion endpoint.
package openai

import (
	"context"
	stderrors "errors"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/turtacn/EntityRisk-Intelligence/internal/config"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = float32(0.3)
	defaultTopP        = float32(0.9)
	defaultMaxTokens   = 500
	defaultTimeout     = 60 * time.Second

	systemPrompt = "You are a compliance analyst evaluating third-party risk. " +
		"Answer with strict JSON only, no prose outside the JSON object."
)

// Analyzer sends risk-analysis prompts to the model and returns the raw
// completion text. Response parsing belongs to the scoring layer.
type Analyzer struct {
	client      *openai.Client
	model       string
	temperature float32
	topP        float32
	maxTokens   int
	logger      logging.Logger
	metrics     *prometheus.AppMetrics
}

type AnalyzerOption func(*Analyzer)

// WithMetrics records per-call inference metrics.
func WithMetrics(m *prometheus.AppMetrics) AnalyzerOption {
	return func(a *Analyzer) { a.metrics = m }
}

// WithModel overrides the configured model name.
func WithModel(model string) AnalyzerOption {
	return func(a *Analyzer) { a.model = model }
}

// WithMaxTokens overrides the completion token ceiling.
func WithMaxTokens(n int) AnalyzerOption {
	return func(a *Analyzer) { a.maxTokens = n }
}

func NewAnalyzer(cfg config.LLMConfig, log logging.Logger, opts ...AnalyzerOption) (*Analyzer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "llm api key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	a := &Analyzer{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		maxTokens:   cfg.MaxTokens,
		logger:      log,
	}
	if a.model == "" {
		a.model = defaultModel
	}
	if a.temperature == 0 {
		a.temperature = defaultTemperature
	}
	if a.topP == 0 {
		a.topP = defaultTopP
	}
	if a.maxTokens == 0 {
		a.maxTokens = defaultMaxTokens
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Infer submits a single prompt and returns the first choice's content.
func (a *Analyzer) Infer(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", errors.New(errors.ErrCodeAIInputInvalid, "prompt is required")
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: a.temperature,
		TopP:        a.topP,
		MaxTokens:   a.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		if a.metrics != nil {
			prometheus.RecordInference(a.metrics, a.model, time.Since(start), 0, 0, err)
		}
		return "", classifyError(err)
	}
	if a.metrics != nil {
		prometheus.RecordInference(a.metrics, a.model, time.Since(start),
			resp.Usage.PromptTokens, resp.Usage.CompletionTokens, nil)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New(errors.ErrCodeAIResponseMalformed, "model returned no content")
	}

	a.logger.Debug("inference completed",
		logging.String("model", a.model),
		logging.String("finish_reason", string(resp.Choices[0].FinishReason)),
		logging.Int("prompt_tokens", resp.Usage.PromptTokens),
		logging.Int("completion_tokens", resp.Usage.CompletionTokens),
		logging.Duration("duration", time.Since(start)),
	)
	return resp.Choices[0].Message.Content, nil
}

func classifyError(err error) error {
	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 404:
			return errors.Wrap(err, errors.ErrCodeAIModelNotAvailable, "model not available")
		case 429:
			return errors.Wrap(err, errors.ErrCodeAIResourceExhausted, "inference rate limited")
		}
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.ErrCodeAIInferenceFailed, "inference timed out")
	}
	return errors.Wrap(err, errors.ErrCodeAIInferenceFailed, "inference request failed")
}
