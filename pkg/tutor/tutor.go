// Package tutor answers free-text questions from a fixed question/answer table by lexical
// overlap. It shares nothing with the progress engine.
package tutor

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

const (
	// DefaultMinSimilarity is the lowest overlap score accepted as a match.
	DefaultMinSimilarity = 0.3
	// NoAnswerMessage is returned when nothing in the table is close enough.
	NoAnswerMessage = "Sorry, I don't have an answer for that question."
)

// ErrEmptyQuestion is returned for blank questions.
var ErrEmptyQuestion = errors.New("question must not be empty")

// Entry is one row of the question/answer table.
type Entry struct {
	Question string
	Topic    string
	Answer   string
}

// Fallback answers questions the table could not match.
type Fallback interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Result describes how a question was answered.
type Result struct {
	Answer     string  `json:"answer"`
	Score      float64 `json:"score"`
	Matched    bool    `json:"matched"`
	Source     string  `json:"source"`
	MatchedFor string  `json:"matched_question,omitempty"`
	// FallbackErr is set when the fallback was consulted and failed.
	FallbackErr error `json:"-"`
}

// Answer sources.
const (
	SourceTable    = "table"
	SourceFallback = "fallback"
	SourceNone     = "none"
)

// Matcher holds the loaded table.
type Matcher struct {
	entries       []Entry
	tokens        [][]string
	minSimilarity float64
	fallback      Fallback
}

// Option customises a Matcher.
type Option func(*Matcher)

// WithMinSimilarity overrides DefaultMinSimilarity.
func WithMinSimilarity(value float64) Option {
	return func(m *Matcher) {
		if value > 0 {
			m.minSimilarity = value
		}
	}
}

// WithFallback sets the answerer used when no table row matches.
func WithFallback(fallback Fallback) Option {
	return func(m *Matcher) {
		m.fallback = fallback
	}
}

// New builds a matcher over the given entries.
func New(entries []Entry, opts ...Option) *Matcher {
	m := &Matcher{
		entries:       entries,
		tokens:        make([][]string, len(entries)),
		minSimilarity: DefaultMinSimilarity,
	}
	for i, entry := range entries {
		m.tokens[i] = tokenize(entry.Question)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadFile reads a CSV file with a header row and question,topic,answer columns.
func LoadFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tutor data: %w", err)
	}
	defer file.Close()

	return Load(file)
}

// Load reads question,topic,answer rows from CSV. The first row is a header. Rows with fewer
// than three columns are skipped.
func Load(reader io.Reader) ([]Entry, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	var entries []Entry
	header := true
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse tutor data: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(record) < 3 {
			continue
		}
		entries = append(entries, Entry{
			Question: strings.TrimSpace(record[0]),
			Topic:    strings.TrimSpace(record[1]),
			Answer:   strings.TrimSpace(record[2]),
		})
	}

	return entries, nil
}

// Len reports the number of loaded entries.
func (m *Matcher) Len() int {
	return len(m.entries)
}

// Answer returns the answer of the closest table row, the fallback's answer, or
// NoAnswerMessage.
func (m *Matcher) Answer(ctx context.Context, question string) (Result, error) {
	if strings.TrimSpace(question) == "" {
		return Result{}, ErrEmptyQuestion
	}

	query := tokenize(question)
	bestScore := -1.0
	bestIndex := -1
	for i, tokens := range m.tokens {
		score := Similarity(query, tokens)
		if score > bestScore {
			bestScore = score
			bestIndex = i
		}
	}
	if bestScore < 0 {
		bestScore = 0
	}

	if bestIndex >= 0 && bestScore >= m.minSimilarity {
		return Result{
			Answer:     m.entries[bestIndex].Answer,
			Score:      bestScore,
			Matched:    true,
			Source:     SourceTable,
			MatchedFor: m.entries[bestIndex].Question,
		}, nil
	}

	result := Result{Answer: NoAnswerMessage, Score: bestScore, Source: SourceNone}
	if m.fallback != nil {
		answer, err := m.fallback.Answer(ctx, question)
		if err != nil {
			result.FallbackErr = err
			return result, nil
		}
		if strings.TrimSpace(answer) != "" {
			return Result{Answer: strings.TrimSpace(answer), Score: bestScore, Source: SourceFallback}, nil
		}
	}

	return result, nil
}

// Similarity is the number of distinct shared words over the geometric mean of both word
// counts.
func Similarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	inB := make(map[string]struct{}, len(b))
	for _, word := range b {
		inB[word] = struct{}{}
	}

	seen := make(map[string]struct{}, len(a))
	common := 0
	for _, word := range a {
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		if _, ok := inB[word]; ok {
			common++
		}
	}

	return float64(common) / math.Sqrt(float64(len(a)*len(b)))
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(strings.TrimSpace(text)))
}
