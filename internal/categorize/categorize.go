// Package categorize implements the text-categorization engine: a pure,
// stateless transform that fetches source text, splits it into sentences,
// and buckets them by keyword match. Its results feed the pipeline as
// activity records.
package categorize

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Categories maps bucket names to the keywords that select for them.
var Categories = map[string][]string{
	"cats":   {"cat", "cats", "kitten", "feline"},
	"water":  {"water", "river", "ocean", "rain", "sea", "lake"},
	"trees":  {"tree", "trees", "forest", "leaf", "branch"},
	"people": {"man", "woman", "person", "people", "child", "human"},
}

// Result is the outcome of categorizing one body of text.
type Result struct {
	Timestamp     time.Time           `json:"timestamp"`
	Sentences     int                 `json:"sentences"`
	Buckets       map[string][]string `json:"buckets"`
	Counts        map[string]int      `json:"counts"`
	Uncategorized int                 `json:"uncategorized"`
}

// Categorize splits text into sentences and buckets each sentence into
// the first category whose keyword it contains.
func Categorize(text string, now time.Time) Result {
	sentences := SplitSentences(text)
	result := Result{
		Timestamp: now,
		Sentences: len(sentences),
		Buckets:   map[string][]string{},
		Counts:    map[string]int{},
	}

	for _, sentence := range sentences {
		category := matchCategory(sentence)
		if category == "" {
			result.Uncategorized++
			continue
		}
		result.Buckets[category] = append(result.Buckets[category], sentence)
		result.Counts[category]++
	}
	return result
}

// SplitSentences breaks text on sentence-ending punctuation, trimming
// whitespace and dropping empties.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// MatchCount counts keyword hits per category across the given text.
func MatchCount(text string) map[string]int {
	counts := map[string]int{}
	lower := strings.ToLower(text)
	for category, keywords := range Categories {
		for _, kw := range keywords {
			counts[category] += strings.Count(lower, kw)
		}
	}
	return counts
}

func matchCategory(sentence string) string {
	lower := strings.ToLower(sentence)
	// Fixed probe order keeps bucketing deterministic.
	for _, category := range []string{"cats", "water", "trees", "people"} {
		for _, kw := range Categories[category] {
			if containsWord(lower, kw) {
				return category
			}
		}
	}
	return ""
}

func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isLetter(text[start-1])
		afterOK := end == len(text) || !isLetter(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Engine fetches source text over HTTP and categorizes it.
type Engine struct {
	client *http.Client
	logger *slog.Logger
}

// NewEngine creates an engine. client defaults to http.DefaultClient.
func NewEngine(client *http.Client, logger *slog.Logger) *Engine {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{client: client, logger: logger}
}

// CategorizeURL fetches the source text and categorizes it.
func (e *Engine) CategorizeURL(ctx context.Context, url string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("building request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetching source text: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("fetching source text: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Result{}, fmt.Errorf("reading source text: %w", err)
	}

	result := Categorize(string(body), time.Now())
	e.logger.Debug("categorized source text",
		"url", url, "sentences", result.Sentences, "uncategorized", result.Uncategorized)
	return result, nil
}
