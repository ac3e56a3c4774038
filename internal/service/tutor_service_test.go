package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-admin-api/internal/dto"
	"github.com/noah-isme/lms-admin-api/internal/observability"
	"github.com/noah-isme/lms-admin-api/pkg/tutor"
)

const tutorTable = `question,topic,answer
what is a variable,basics,A named value.
"how do loops work, exactly",control flow,They repeat a block.
`

func TestTutorServiceAsk(t *testing.T) {
	entries, err := tutor.Load(strings.NewReader(tutorTable))
	require.NoError(t, err)
	svc := NewTutorService(tutor.New(entries), testValidator(), testLogger())
	ctx := context.Background()

	resp, err := svc.Ask(ctx, dto.TutorAskRequest{Question: "What is a variable"})
	require.NoError(t, err)
	require.True(t, resp.Matched)
	require.Equal(t, tutor.SourceTable, resp.Source)
	require.Equal(t, "A named value.", resp.Answer)
	require.InDelta(t, 1.0, resp.Similarity, 1e-9)

	resp, err = svc.Ask(ctx, dto.TutorAskRequest{Question: "photosynthesis"})
	require.NoError(t, err)
	require.False(t, resp.Matched)
	require.Equal(t, tutor.NoAnswerMessage, resp.Answer)

	_, err = svc.Ask(ctx, dto.TutorAskRequest{Question: ""})
	require.ErrorIs(t, err, ErrEmptyQuestion)

	_, err = svc.Ask(ctx, dto.TutorAskRequest{Question: "   "})
	require.ErrorIs(t, err, ErrEmptyQuestion)
}

type failingFallback struct{}

func (failingFallback) Answer(context.Context, string) (string, error) {
	return "", errors.New("openai unavailable")
}

func TestTutorServiceCountsFallbackFailures(t *testing.T) {
	svc := NewTutorService(tutor.New(nil, tutor.WithFallback(failingFallback{})), testValidator(), testLogger())
	counter := observability.TutorAnswers().WithLabelValues(OutcomeFallbackError)
	before := testutil.ToFloat64(counter)

	resp, err := svc.Ask(context.Background(), dto.TutorAskRequest{Question: "photosynthesis"})
	require.NoError(t, err)
	require.Equal(t, tutor.NoAnswerMessage, resp.Answer)
	require.Equal(t, tutor.SourceNone, resp.Source)
	require.Equal(t, before+1, testutil.ToFloat64(counter))
}
