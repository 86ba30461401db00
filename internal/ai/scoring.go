package ai

import (
	"fmt"
	"strings"
)

// Category is one of the fixed scoring axes.
type Category string

const (
	CategoryIdeas        Category = "ideas"
	CategoryOrganization Category = "organization"
	CategoryAccuracy     Category = "accuracy"
	CategoryVoice        Category = "voice"
	CategoryGrammar      Category = "grammar"
	CategoryFillerWords  Category = "fillerWords"
)

// Categories lists the scoring axes in display order.
var Categories = []Category{
	CategoryIdeas,
	CategoryOrganization,
	CategoryAccuracy,
	CategoryVoice,
	CategoryGrammar,
	CategoryFillerWords,
}

const (
	MinScore = 1
	MaxScore = 10
)

// Score is a single category grade.
type Score struct {
	Score         int    `json:"score"`
	Justification string `json:"justification"`
}

// Scoring holds the categories the agent graded. Absent categories were not graded.
type Scoring map[Category]Score

func knownCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Validate enforces the score range and that every grade is justified.
func (s Scoring) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("scoring has no categories")
	}
	for category, score := range s {
		if !knownCategory(category) {
			return fmt.Errorf("unknown scoring category %q", category)
		}
		if score.Score < MinScore || score.Score > MaxScore {
			return fmt.Errorf("%s score %d is outside [%d,%d]", category, score.Score, MinScore, MaxScore)
		}
		if strings.TrimSpace(score.Justification) == "" {
			return fmt.Errorf("%s score has no justification", category)
		}
	}
	return nil
}

// Sum returns the total of all present scores and how many there are.
func (s Scoring) Sum() (total, count int) {
	for _, score := range s {
		total += score.Score
		count++
	}
	return total, count
}
