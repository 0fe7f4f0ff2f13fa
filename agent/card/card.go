// Package card describes what each agent can do so clients can discover
// agents by capability and check method parameters before sending.
package card

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
)

var (
	ErrUnknownAgent  = errors.New("unknown agent")
	ErrUnknownMethod = errors.New("unknown method")
)

type Param struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Enum     []string `json:"enum,omitempty"`
}

type MethodSpec struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"parameters"`
	Returns     string  `json:"returns"`
	// Tool is the gateway tool the method is served by, if any.
	Tool string `json:"mcp_tool,omitempty"`
}

type Card struct {
	AgentID      contractx.AgentID `json:"agent_id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Version      string            `json:"version"`
	Capabilities []string          `json:"capabilities"`
	Methods      []MethodSpec      `json:"methods"`

	SupportedIntents    []string `json:"supported_intents,omitempty"`
	SupportedQueryTypes []string `json:"supported_query_types,omitempty"`
	PriorityLevels      []string `json:"priority_levels,omitempty"`
	ToolServer          string   `json:"mcp_server,omitempty"`
	Transport           string   `json:"transport,omitempty"`
	UsesLLM             bool     `json:"uses_llm"`
}

// Method returns the named method of c.
func (c Card) Method(name string) (MethodSpec, bool) {
	for _, m := range c.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return MethodSpec{}, false
}

// Get returns the card of id. Callers get their own copy.
func Get(id contractx.AgentID) (Card, bool) {
	for _, c := range cards() {
		if c.AgentID == id {
			return c, true
		}
	}
	return Card{}, false
}

// List returns every card, router first.
func List() []Card {
	return cards()
}

// Capabilities is empty for unknown agents.
func Capabilities(id contractx.AgentID) []string {
	c, ok := Get(id)
	if !ok {
		return []string{}
	}
	return c.Capabilities
}

// Methods is empty for unknown agents.
func Methods(id contractx.AgentID) []MethodSpec {
	c, ok := Get(id)
	if !ok {
		return []MethodSpec{}
	}
	return c.Methods
}

// FindByCapability returns the cards with at least one capability matching
// the glob pattern, e.g. "ticket_*" or "*_analysis".
func FindByCapability(pattern string) ([]Card, error) {
	g, err := glob.Compile(strings.TrimSpace(pattern))
	if err != nil {
		return nil, fmt.Errorf("%w: capability pattern %q: %v", contractx.ErrValidation, pattern, err)
	}

	var out []Card
	for _, c := range cards() {
		for _, capability := range c.Capabilities {
			if g.Match(capability) {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

// ValidateParams checks that params carry every required parameter of
// method and that enum parameters hold an allowed value.
func ValidateParams(id contractx.AgentID, method string, params map[string]any) error {
	c, ok := Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAgent, id)
	}
	m, ok := c.Method(method)
	if !ok {
		return fmt.Errorf("%w: %s does not serve %s", ErrUnknownMethod, id, method)
	}

	var problems []string
	for _, p := range m.Params {
		v, present := params[p.Name]
		if !present || v == nil {
			if p.Required {
				problems = append(problems, p.Name+" is required")
			}
			continue
		}
		if len(p.Enum) > 0 && !slices.Contains(p.Enum, fmt.Sprint(v)) {
			problems = append(problems, fmt.Sprintf("%s must be one of %s", p.Name, strings.Join(p.Enum, ", ")))
		}
	}
	if len(problems) > 0 {
		slices.Sort(problems)
		return fmt.Errorf("%w: %s.%s: %s", contractx.ErrValidation, id, method, strings.Join(problems, "; "))
	}
	return nil
}
