package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/lms-admin-api/internal/dto"
	"github.com/noah-isme/lms-admin-api/internal/observability"
	"github.com/noah-isme/lms-admin-api/pkg/tutor"
)

// OutcomeFallbackError labels answers where the fallback answerer failed.
const OutcomeFallbackError = "fallback_error"

// ErrEmptyQuestion is returned for blank tutor questions.
var ErrEmptyQuestion = tutor.ErrEmptyQuestion

// Answerer is the subset of the tutor matcher used by the service.
type Answerer interface {
	Answer(ctx context.Context, question string) (tutor.Result, error)
}

// TutorService answers student questions from the tutor table.
type TutorService interface {
	Ask(ctx context.Context, payload dto.TutorAskRequest) (dto.TutorAnswerResponse, error)
}

type tutorService struct {
	matcher   Answerer
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewTutorService constructs the tutor service.
func NewTutorService(matcher Answerer, validator *validator.Validate, logger zerolog.Logger) TutorService {
	return &tutorService{
		matcher:   matcher,
		validator: validator,
		logger:    logger.With().Str("component", "tutor_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/lms-admin-api/internal/service/tutor"),
	}
}

func (s *tutorService) Ask(ctx context.Context, payload dto.TutorAskRequest) (dto.TutorAnswerResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		if isBlankQuestion(err) {
			return dto.TutorAnswerResponse{}, ErrEmptyQuestion
		}
		return dto.TutorAnswerResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "tutor.ask")
	defer span.End()

	result, err := s.matcher.Answer(ctx, payload.Question)
	if err != nil {
		observability.TutorAnswers().WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "answer failed")
		if !errors.Is(err, tutor.ErrEmptyQuestion) {
			s.logger.Error().Err(err).Msg("tutor answer failed")
		}
		return dto.TutorAnswerResponse{}, err
	}

	outcome := result.Source
	if result.FallbackErr != nil {
		outcome = OutcomeFallbackError
		span.RecordError(result.FallbackErr)
		s.logger.Warn().Err(result.FallbackErr).Msg("tutor fallback failed")
	}
	observability.TutorAnswers().WithLabelValues(outcome).Inc()
	span.SetAttributes(
		attribute.String("tutor.source", result.Source),
		attribute.Float64("tutor.score", result.Score),
	)

	return dto.TutorAnswerResponse{
		Answer:     result.Answer,
		Source:     result.Source,
		Matched:    result.Matched,
		Similarity: result.Score,
		MatchedFor: result.MatchedFor,
	}, nil
}

func isBlankQuestion(err error) bool {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return false
	}
	for _, fieldErr := range validationErrors {
		if fieldErr.Field() == "Question" && fieldErr.Tag() == "required" {
			return true
		}
	}
	return false
}
