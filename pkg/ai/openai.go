package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lms",
		Subsystem: "ai",
		Name:      "answer_duration_seconds",
		Help:      "Duration of AI tutor requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lms",
		Subsystem: "ai",
		Name:      "answer_failures_total",
		Help:      "Number of AI tutor failures",
	}, []string{"model"})
)

// ChatClient is the subset of the OpenAI client used by the answerer.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIConfig defines configuration options for the OpenAI answerer.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIAnswerer answers tutor questions the local table could not match.
type OpenAIAnswerer struct {
	client ChatClient
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIAnswerer builds a new answerer using the provided configuration.
func NewOpenAIAnswerer(cfg OpenAIConfig) (*OpenAIAnswerer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	return NewOpenAIAnswererWithClient(openai.NewClientWithConfig(openai.DefaultConfig(cfg.APIKey)), cfg), nil
}

// NewOpenAIAnswererWithClient builds an answerer around an existing chat client.
func NewOpenAIAnswererWithClient(client ChatClient, cfg OpenAIConfig) *OpenAIAnswerer {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 300
	}

	return &OpenAIAnswerer{
		client: client,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/lms-admin-api/pkg/ai/openai"),
		logger: cfg.Logger.With().Str("component", "openai_answerer").Logger(),
	}
}

// Answer asks the model for a short tutor-style answer.
func (a *OpenAIAnswerer) Answer(parent context.Context, question string) (string, error) {
	ctx, span := a.tracer.Start(parent, "openai.answer", trace.WithAttributes(
		attribute.String("model", a.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: tutorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: strings.TrimSpace(question)},
		},
	})
	aiDuration.WithLabelValues(a.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(a.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Warn().Err(err).Msg("openai tutor request failed")
		return "", fmt.Errorf("openai answer: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(a.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

const tutorSystemPrompt = "You are a patient programming tutor for beginners. Answer in at most three short " +
	"sentences. If the question is not about learning or programming, say you can only help with course topics."
