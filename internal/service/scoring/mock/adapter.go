// Package mock provides a scoring adapter for testing without API
// credentials. It returns canned, schema-conforming feedback derived from
// the prompt length, or a scripted response/error when configured.
package mock

import (
	"context"
	"encoding/json"
	"sync"

	"ai-interview-orchestrator/internal/schema"
	"ai-interview-orchestrator/internal/service/scoring"
)

// Adapter implements scoring.Adapter with canned responses.
type Adapter struct {
	mu sync.Mutex
	// Response overrides the canned payload when non-nil.
	Response []byte
	// Err is returned instead of a payload when set.
	Err error
	// Calls records every request, in order.
	Calls []scoring.Request
}

// New creates a mock scoring adapter producing valid canned feedback.
func New() *Adapter {
	return &Adapter{}
}

// Generate returns the scripted error, the scripted response, or a canned
// conforming payload, in that precedence order.
func (a *Adapter) Generate(_ context.Context, req scoring.Request) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.Calls = append(a.Calls, req)

	if a.Err != nil {
		return nil, a.Err
	}
	if a.Response != nil {
		return a.Response, nil
	}
	return cannedPayload(), nil
}

// CallCount returns the number of Generate invocations.
func (a *Adapter) CallCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Calls)
}

func cannedPayload() []byte {
	total := 74
	p := schema.Payload{
		TotalScore:          &total,
		Strengths:           []string{"Structured answers", "Concrete examples"},
		AreasForImprovement: []string{"Quantify impact more often"},
		FinalAssessment:     "A capable candidate with room to grow on depth.",
	}
	scores := []int{78, 72, 75, 70, 76}
	for i, name := range schema.ExpectedCategories {
		s := scores[i]
		p.CategoryScores = append(p.CategoryScores, schema.CategoryPayload{
			Name:    name,
			Score:   &s,
			Comment: "Consistent through the interview.",
		})
	}
	raw, _ := json.Marshal(p)
	return raw
}
