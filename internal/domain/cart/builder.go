package cart

import (
	"math"
	"sort"
	"strings"
	"time"
)

// themeKeywords drives pattern detection in memory content.
var themeKeywords = map[string][]string{
	"nature":  {"tree", "forest", "water", "river", "ocean", "cat", "animal"},
	"people":  {"man", "woman", "person", "child", "human"},
	"action":  {"walk", "run", "move", "go", "come", "see"},
	"emotion": {"love", "hate", "fear", "joy", "sad", "happy"},
}

// PatternAnalysis summarizes themes found in memory content.
type PatternAnalysis struct {
	Timestamp     time.Time      `json:"timestamp"`
	Themes        map[string]int `json:"themes"`
	TotalLines    int            `json:"total_lines"`
	AvgLineLength float64        `json:"avg_line_length"`
}

// AnalyzeMemoryPatterns counts theme keyword occurrences line by line.
func AnalyzeMemoryPatterns(content string, now time.Time) PatternAnalysis {
	analysis := PatternAnalysis{
		Timestamp: now,
		Themes:    map[string]int{},
	}
	if content == "" {
		return analysis
	}

	lines := strings.Split(content, "\n")
	analysis.TotalLines = len(lines)

	var totalLen int
	for _, line := range lines {
		totalLen += len(line)
		lower := strings.ToLower(line)
		for theme, keywords := range themeKeywords {
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					analysis.Themes[theme]++
				}
			}
		}
	}
	analysis.AvgLineLength = float64(totalLen) / float64(len(lines))
	return analysis
}

// Build tiers by token value.
const (
	TierBasic        = "basic"
	TierProfessional = "professional"
	TierAdvanced     = "advanced"
	TierQuantum      = "quantum"
)

// BuildConfig describes the build derived from a token value and the
// detected patterns.
type BuildConfig struct {
	Timestamp         time.Time `json:"timestamp"`
	TokenValue        float64   `json:"token_value"`
	Tier              string    `json:"build_tier"`
	Features          []string  `json:"features"`
	OptimizationLevel int       `json:"optimization_level"`
	MemoryLimitMB     float64   `json:"memory_limit_mb"`
	ThreadCount       int       `json:"thread_count"`
}

// GenerateBuildConfig picks a build tier and feature set.
func GenerateBuildConfig(tokenValue float64, patterns PatternAnalysis, now time.Time) BuildConfig {
	cfg := BuildConfig{
		Timestamp:  now,
		TokenValue: tokenValue,
	}

	switch {
	case tokenValue > 1e12:
		cfg.Tier = TierQuantum
		cfg.Features = []string{"quantum_processing", "parallel_execution", "advanced_ai"}
	case tokenValue > 1e9:
		cfg.Tier = TierAdvanced
		cfg.Features = []string{"multi_threading", "enhanced_memory", "ai_assist"}
	case tokenValue > 1e6:
		cfg.Tier = TierProfessional
		cfg.Features = []string{"optimization", "caching", "logging"}
	default:
		cfg.Tier = TierBasic
		cfg.Features = []string{"standard_processing"}
	}

	if _, ok := patterns.Themes["nature"]; ok {
		cfg.Features = append(cfg.Features, "nature_pattern_recognition")
	}
	if _, ok := patterns.Themes["people"]; ok {
		cfg.Features = append(cfg.Features, "social_analysis")
	}

	cfg.OptimizationLevel = len(cfg.Features)
	cfg.MemoryLimitMB = math.Min(tokenValue/1000, 1e6)
	cfg.ThreadCount = int(math.Min(tokenValue/1e6, 64))
	return cfg
}

// Artifact is the result payload of the robotic builder cart.
type Artifact struct {
	Timestamp  time.Time       `json:"timestamp"`
	TokenHash  string          `json:"token_hash"`
	TokenValue float64         `json:"token_value"`
	Patterns   PatternAnalysis `json:"patterns"`
	Build      BuildConfig     `json:"build_config"`
	Themes     []string        `json:"themes"`
	Status     string          `json:"status"`
}

// CreateBuildArtifact analyzes memory content and assembles a complete
// build artifact.
func CreateBuildArtifact(tokenHash string, tokenValue float64, memoryContent string, now time.Time) Artifact {
	patterns := AnalyzeMemoryPatterns(memoryContent, now)
	build := GenerateBuildConfig(tokenValue, patterns, now)

	themes := make([]string, 0, len(patterns.Themes))
	for theme := range patterns.Themes {
		themes = append(themes, theme)
	}
	sort.Strings(themes)

	return Artifact{
		Timestamp:  now,
		TokenHash:  tokenHash,
		TokenValue: tokenValue,
		Patterns:   patterns,
		Build:      build,
		Themes:     themes,
		Status:     "ready",
	}
}
