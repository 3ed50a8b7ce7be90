// Package schema validates structured feedback payloads returned by the
// scoring backend before anything is persisted.
package schema

import (
	"errors"
	"fmt"
)

// ExpectedCategories is the fixed five-category rubric, in order.
var ExpectedCategories = []string{
	"Communication Skills",
	"Technical Knowledge",
	"Problem-Solving",
	"Cultural & Role Fit",
	"Confidence & Clarity",
}

// Validation errors.
var (
	ErrMissingTotalScore   = errors.New("totalScore missing")
	ErrScoreOutOfRange     = errors.New("score out of range")
	ErrWrongCategoryCount  = errors.New("categoryScores must have exactly 5 entries")
	ErrMissingCategoryName = errors.New("category name missing")
	ErrMissingAssessment   = errors.New("finalAssessment missing")
)

// CategoryPayload is one category entry of the scoring breakdown.
type CategoryPayload struct {
	Name    string `json:"name"`
	Score   *int   `json:"score"`
	Comment string `json:"comment"`
}

// Payload is the schema-constrained shape the scoring backend must produce.
// Score fields are pointers so a missing field is distinguishable from a
// legitimate zero.
type Payload struct {
	TotalScore          *int              `json:"totalScore"`
	CategoryScores      []CategoryPayload `json:"categoryScores"`
	Strengths           []string          `json:"strengths"`
	AreasForImprovement []string          `json:"areasForImprovement"`
	FinalAssessment     string            `json:"finalAssessment"`
}

// Validator checks feedback payloads against the fixed schema.
type Validator struct{}

// New creates a validator.
func New() *Validator {
	return &Validator{}
}

// Validate returns nil if the payload conforms: totalScore present and in
// [0,100], exactly five categories each with a name and an in-range score,
// and a non-empty final assessment.
func (v *Validator) Validate(p *Payload) error {
	if p == nil || p.TotalScore == nil {
		return ErrMissingTotalScore
	}
	if *p.TotalScore < 0 || *p.TotalScore > 100 {
		return fmt.Errorf("%w: totalScore=%d", ErrScoreOutOfRange, *p.TotalScore)
	}

	if len(p.CategoryScores) != len(ExpectedCategories) {
		return fmt.Errorf("%w: got %d", ErrWrongCategoryCount, len(p.CategoryScores))
	}
	for i, c := range p.CategoryScores {
		if c.Name == "" {
			return fmt.Errorf("%w: entry %d", ErrMissingCategoryName, i)
		}
		if c.Score == nil {
			return fmt.Errorf("%w: category %q has no score", ErrScoreOutOfRange, c.Name)
		}
		if *c.Score < 0 || *c.Score > 100 {
			return fmt.Errorf("%w: category %q score=%d", ErrScoreOutOfRange, c.Name, *c.Score)
		}
	}

	if p.FinalAssessment == "" {
		return ErrMissingAssessment
	}
	return nil
}
