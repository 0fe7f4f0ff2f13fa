package llm

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	promptx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/prompt"
)

// Classifier is the Intent Classifier backed by a Text Generator.
type Classifier struct {
	gen contractx.TextGenerator
}

var _ contractx.IntentClassifier = (*Classifier)(nil)

func NewClassifier(gen contractx.TextGenerator) *Classifier {
	return &Classifier{gen: gen}
}

// Classify returns ErrSchemaViolation when the model reply is unusable; the
// caller decides how to degrade. Loosely typed fields such as a quoted
// customer id are coerced rather than rejected.
func (c *Classifier) Classify(ctx context.Context, query string, customerID *int) (contractx.IntentAnalysis, error) {
	p, err := promptx.Render(promptx.Intent, promptx.IntentData{Query: query, CustomerID: customerID})
	if err != nil {
		return contractx.IntentAnalysis{}, err
	}

	raw, err := GenerateStructured[map[string]any](ctx, c.gen, p)
	if err != nil {
		return contractx.IntentAnalysis{}, err
	}
	var analysis contractx.IntentAnalysis
	if err := contractx.DecodeParams(raw, &analysis); err != nil {
		return contractx.IntentAnalysis{}, fmt.Errorf("%w: %v", contractx.ErrSchemaViolation, err)
	}
	if strings.TrimSpace(string(analysis.Type)) == "" {
		return contractx.IntentAnalysis{}, fmt.Errorf("%w: intent type is empty", contractx.ErrSchemaViolation)
	}
	return analysis, nil
}
