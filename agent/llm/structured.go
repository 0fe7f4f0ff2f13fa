package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
)

// StripCodeFence removes markdown code fences the model wraps JSON in.
func StripCodeFence(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// ParseStructured decodes model output into T after stripping code fences.
func ParseStructured[T any](raw string) (T, error) {
	var out T
	text := StripCodeFence(raw)
	if text == "" {
		return out, fmt.Errorf("%w: empty model output", contractx.ErrSchemaViolation)
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return out, fmt.Errorf("%w: %v", contractx.ErrSchemaViolation, err)
	}
	return out, nil
}

// GenerateStructured runs prompt through gen and parses the reply as T.
func GenerateStructured[T any](ctx context.Context, gen contractx.TextGenerator, prompt string) (T, error) {
	var zero T
	raw, err := gen.Generate(ctx, prompt)
	if err != nil {
		return zero, err
	}
	return ParseStructured[T](raw)
}
