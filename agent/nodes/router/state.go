package routernode

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	protocolx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/protocol"
)

var ErrInvalidQuery = errors.New("query is empty")

// Branch targets of the routing graph. Each query type names its own node.
const (
	NodeValidateRequest = "validate_request"
	NodeAnalyzeIntent   = "analyze_intent"
	NodeUnknownType     = "unknown_type"
)

type GraphInput struct {
	Query      string
	CustomerID *int
}

// GraphOutput is produced by exactly one strategy node.
type GraphOutput struct {
	Result map[string]any
}

type GraphState struct {
	Query      string
	CustomerID *int
	Intent     contractx.IntentAnalysis
}

// Peers are the agents a routing strategy may contact.
type Peers struct {
	Self      contractx.AgentID
	Data      contractx.Agent
	Support   contractx.Agent
	Generator contractx.TextGenerator
	Logger    zerolog.Logger
}

func (p Peers) send(ctx context.Context, to contractx.Agent, method contractx.Method, params map[string]any) *protocolx.Response {
	msg := protocolx.NewMessage(string(method), params, string(p.Self), string(to.ID()))
	p.Logger.Debug().Str("to", msg.ToAgent).Str("method", msg.Method).Str("id", msg.ID).Msg("sending")
	return to.HandleMessage(ctx, msg)
}

func ValidateRequest(in GraphInput) (*GraphState, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, ErrInvalidQuery
	}
	return &GraphState{
		Query:      query,
		CustomerID: in.CustomerID,
	}, nil
}

// AnalyzeIntent never fails: an unusable classification degrades to the
// fallback analysis.
func AnalyzeIntent(ctx context.Context, st *GraphState, classifier contractx.IntentClassifier, logger zerolog.Logger) (*GraphState, error) {
	analysis, err := classifier.Classify(ctx, st.Query, st.CustomerID)
	if err != nil {
		logger.Warn().Err(err).Msg("intent classification failed, using fallback")
		analysis = contractx.FallbackIntent(st.CustomerID)
	}
	st.Intent = analysis

	logger.Info().
		Str("type", string(analysis.Type)).
		Strs("intents", analysis.Intents).
		Bool("requires_data_agent", analysis.RequiresDataAgent).
		Bool("requires_support_agent", analysis.RequiresSupportAgent).
		Msg("intent analyzed")
	return st, nil
}

// SelectStrategy names the node that handles the analyzed query type.
func SelectStrategy(st *GraphState) string {
	for _, t := range contractx.QueryTypes() {
		if st.Intent.Type == t {
			return string(t)
		}
	}
	return NodeUnknownType
}

// customerID prefers the caller's id over one the classifier extracted.
// Zero counts as absent.
func (st *GraphState) customerID() (int, bool) {
	if st.CustomerID != nil && *st.CustomerID != 0 {
		return *st.CustomerID, true
	}
	if id := st.Intent.CustomerIDMentioned; id != nil && *id != 0 {
		return *id, true
	}
	return 0, false
}

// payloadOf flattens a downstream response into the aggregated answer.
// Error responses are embedded instead of aborting the route.
func payloadOf(resp *protocolx.Response) map[string]any {
	if resp == nil {
		return map[string]any{"error": "no response"}
	}
	if resp.Failed() {
		return map[string]any{
			"error": resp.Error.Message,
			"code":  resp.Error.Code,
		}
	}
	if r, ok := contractx.AsToolResult(resp.Result); ok {
		return map[string]any(r)
	}
	if resp.Result == nil {
		return map[string]any{}
	}
	return map[string]any{"result": resp.Result}
}
