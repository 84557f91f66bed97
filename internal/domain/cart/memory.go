package cart

import (
	"strings"
	"time"

	"github.com/ganot/mongoose/internal/categorize"
	"github.com/ganot/mongoose/internal/domain/activity"
)

// MemoryMatch is one hit against the accumulated activity log.
type MemoryMatch struct {
	Index   int      `json:"index"`
	Action  string   `json:"action"`
	Content string   `json:"content"`
	Context []string `json:"context,omitempty"`
}

// MemoryResult is the result payload of the memory search cart.
type MemoryResult struct {
	Timestamp    time.Time      `json:"timestamp"`
	Query        string         `json:"query,omitempty"`
	TotalRecords int            `json:"total_records"`
	Matches      []MemoryMatch  `json:"matches,omitempty"`
	Categories   map[string]int `json:"categories"`
}

// SearchMemory scans the log for records whose description contains the
// query, carrying a line of context on either side, and tallies category
// keyword hits across the whole log.
func SearchMemory(records []activity.Record, query string, now time.Time) MemoryResult {
	result := MemoryResult{
		Timestamp:    now,
		Query:        query,
		TotalRecords: len(records),
		Categories:   map[string]int{},
	}

	lowerQuery := strings.ToLower(query)
	for i, rec := range records {
		for category, n := range categorize.MatchCount(rec.Description) {
			result.Categories[category] += n
		}

		if query == "" || !strings.Contains(strings.ToLower(rec.Description), lowerQuery) {
			continue
		}
		match := MemoryMatch{
			Index:   i,
			Action:  string(rec.Action),
			Content: rec.Description,
		}
		if i > 0 {
			match.Context = append(match.Context, records[i-1].Description)
		}
		if i+1 < len(records) {
			match.Context = append(match.Context, records[i+1].Description)
		}
		result.Matches = append(result.Matches, match)
	}
	return result
}

// MemoryText flattens matched content for downstream pattern analysis.
func MemoryText(result MemoryResult, limit int) string {
	var lines []string
	for i, m := range result.Matches {
		if limit > 0 && i >= limit {
			break
		}
		lines = append(lines, m.Content)
	}
	return strings.Join(lines, "\n")
}
