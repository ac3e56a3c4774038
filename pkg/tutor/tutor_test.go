package tutor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleCSV = `question,topic,answer
"What is a variable?",basics,"A named place to store a value."
What is a loop,basics,A construct that repeats instructions.
"What is recursion, really?",functions,"A function calling itself."
broken row
`

type fallbackStub struct {
	answer string
	err    error
	calls  int
}

func (f *fallbackStub) Answer(context.Context, string) (string, error) {
	f.calls++
	return f.answer, f.err
}

func TestLoadParsesQuotedFields(t *testing.T) {
	entries, err := Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "What is recursion, really?", entries[2].Question)
	require.Equal(t, "A function calling itself.", entries[2].Answer)
}

func TestAnswerPicksClosestQuestion(t *testing.T) {
	entries, err := Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	matcher := New(entries)

	result, err := matcher.Answer(context.Background(), "  what is a LOOP ")
	require.NoError(t, err)
	require.True(t, result.Matched)
	require.Equal(t, SourceTable, result.Source)
	require.Equal(t, "A construct that repeats instructions.", result.Answer)
	require.InDelta(t, 1.0, result.Score, 1e-9)
}

func TestAnswerBelowThreshold(t *testing.T) {
	entries, err := Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	matcher := New(entries)

	result, err := matcher.Answer(context.Background(), "how do goroutines schedule")
	require.NoError(t, err)
	require.False(t, result.Matched)
	require.Equal(t, NoAnswerMessage, result.Answer)
}

func TestAnswerUsesFallback(t *testing.T) {
	fallback := &fallbackStub{answer: " Goroutines are multiplexed onto threads. "}
	matcher := New(nil, WithFallback(fallback))

	result, err := matcher.Answer(context.Background(), "how do goroutines schedule")
	require.NoError(t, err)
	require.Equal(t, SourceFallback, result.Source)
	require.Equal(t, "Goroutines are multiplexed onto threads.", result.Answer)
	require.Equal(t, 1, fallback.calls)
}

func TestAnswerFallbackFailureReturnsNoAnswer(t *testing.T) {
	quota := errors.New("quota")
	matcher := New(nil, WithFallback(&fallbackStub{err: quota}))

	result, err := matcher.Answer(context.Background(), "anything")
	require.NoError(t, err)
	require.Equal(t, SourceNone, result.Source)
	require.Equal(t, NoAnswerMessage, result.Answer)
	require.ErrorIs(t, result.FallbackErr, quota)

	result, err = New(nil, WithFallback(&fallbackStub{answer: "  "})).Answer(context.Background(), "anything")
	require.NoError(t, err)
	require.Equal(t, SourceNone, result.Source)
	require.NoError(t, result.FallbackErr)
}

func TestAnswerRejectsBlankQuestion(t *testing.T) {
	_, err := New(nil).Answer(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestSimilarity(t *testing.T) {
	require.Equal(t, 0.0, Similarity(nil, []string{"a"}))
	require.InDelta(t, 0.5, Similarity([]string{"a", "b"}, []string{"a", "c"}), 1e-9)
	require.InDelta(t, 1.0, Similarity([]string{"go"}, []string{"go"}), 1e-9)
}
