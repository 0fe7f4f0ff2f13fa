package contract

import (
	"encoding/json"
	"fmt"
	"maps"
)

type AgentID string

const (
	AgentRouter  AgentID = "router_agent"
	AgentData    AgentID = "data_agent"
	AgentSupport AgentID = "support_agent"
)

// Method names the operations agents dispatch on.
type Method string

const (
	MethodGetCustomer        Method = "get_customer"
	MethodListCustomers      Method = "list_customers"
	MethodUpdateCustomer     Method = "update_customer"
	MethodGetCustomerHistory Method = "get_customer_history"
	MethodCreateTicket       Method = "create_ticket"
	MethodGetTickets         Method = "get_tickets"

	MethodHandleSupportQuery Method = "handle_support_query"
	MethodAnalyzeUrgency     Method = "analyze_urgency"
	MethodGenerateResponse   Method = "generate_response"

	MethodRouteQuery       Method = "route_query"
	MethodCoordinateAgents Method = "coordinate_agents"
)

type QueryType string

const (
	QuerySimpleDataRetrieval QueryType = "simple_data_retrieval"
	QueryCoordinatedSupport  QueryType = "coordinated_support"
	QueryComplexMultiAgent   QueryType = "complex_multi_agent"
	QueryEscalation          QueryType = "escalation"
	QueryMultiIntent         QueryType = "multi_intent"
)

func QueryTypes() []QueryType {
	return []QueryType{
		QuerySimpleDataRetrieval,
		QueryCoordinatedSupport,
		QueryComplexMultiAgent,
		QueryEscalation,
		QueryMultiIntent,
	}
}

// IntentAnalysis is the Intent Classifier's routing verdict.
type IntentAnalysis struct {
	Type                 QueryType `json:"type" mapstructure:"type"`
	Intents              []string  `json:"intents" mapstructure:"intents"`
	RequiresDataAgent    bool      `json:"requires_data_agent" mapstructure:"requires_data_agent"`
	RequiresSupportAgent bool      `json:"requires_support_agent" mapstructure:"requires_support_agent"`
	CustomerIDMentioned  *int      `json:"customer_id_mentioned" mapstructure:"customer_id_mentioned"`
	Urgency              string    `json:"urgency" mapstructure:"urgency"`
	Explanation          string    `json:"explanation" mapstructure:"explanation"`
}

// FallbackIntent is used when the classifier output cannot be parsed.
func FallbackIntent(customerID *int) IntentAnalysis {
	return IntentAnalysis{
		Type:                 QuerySimpleDataRetrieval,
		Intents:              []string{string(MethodGetCustomer)},
		RequiresDataAgent:    true,
		RequiresSupportAgent: false,
		CustomerIDMentioned:  customerID,
		Urgency:              "low",
		Explanation:          "Fallback due to parsing error",
	}
}

// ToolResult is the normalized payload returned by tools and agents:
// {success: true, ...data} or {error: string, ...context}.
type ToolResult map[string]any

func Success(data map[string]any) ToolResult {
	out := make(ToolResult, len(data)+1)
	maps.Copy(out, data)
	out["success"] = true
	return out
}

func Failure(message string, context map[string]any) ToolResult {
	out := make(ToolResult, len(context)+1)
	maps.Copy(out, context)
	out["error"] = message
	return out
}

func (r ToolResult) OK() bool {
	ok, _ := r["success"].(bool)
	return ok && r.Error() == ""
}

// Error returns the in-band error message, or "" when there is none.
func (r ToolResult) Error() string {
	switch v := r["error"].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// AsToolResult views an arbitrary result payload as a ToolResult.
func AsToolResult(v any) (ToolResult, bool) {
	switch r := v.(type) {
	case ToolResult:
		return r, true
	case map[string]any:
		return ToolResult(r), true
	default:
		return nil, false
	}
}

// Field reads key from r as T. Values that crossed a JSON boundary are
// re-decoded, so []Customer and []any both satisfy a slice target.
func Field[T any](r ToolResult, key string) (T, bool) {
	var zero T
	v, ok := r[key]
	if !ok || v == nil {
		return zero, false
	}
	if typed, ok := v.(T); ok {
		return typed, true
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return zero, false
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, false
	}
	return out, true
}
