package specialist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	llmx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/llm"
	promptx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/prompt"
	protocolx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/protocol"
)

// maxTicketContext caps how many previous tickets are shown to the model.
const maxTicketContext = 3

// SupportAgent answers customer queries with Text Generator output and can
// read tickets through the Tool Gateway.
type SupportAgent struct {
	Dispatcher
	tools contractx.ToolGateway
	gen   contractx.TextGenerator
}

var _ contractx.Agent = (*SupportAgent)(nil)

func NewSupportAgent(tools contractx.ToolGateway, gen contractx.TextGenerator, comms *protocolx.Log) (*SupportAgent, error) {
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	if gen == nil {
		return nil, errors.New("text generator is required")
	}

	a := &SupportAgent{
		Dispatcher: NewDispatcher(contractx.AgentSupport, comms),
		tools:      tools,
		gen:        gen,
	}
	a.Register(contractx.MethodHandleSupportQuery, a.handleSupportQuery)
	a.Register(contractx.MethodAnalyzeUrgency, a.analyzeUrgency)
	a.Register(contractx.MethodGenerateResponse, a.generateResponse)
	a.Register(contractx.MethodGetTickets, a.getTickets)
	return a, nil
}

type supportQueryParams struct {
	Query           string `mapstructure:"query"`
	CustomerContext any    `mapstructure:"customer_context"`
	TicketContext   any    `mapstructure:"ticket_context"`
}

type queryParams struct {
	Query   string `mapstructure:"query"`
	Context any    `mapstructure:"context"`
}

func (a *SupportAgent) handleSupportQuery(ctx context.Context, params map[string]any) (any, error) {
	var p supportQueryParams
	if err := contractx.DecodeParams(params, &p); err != nil {
		return nil, err
	}

	data := promptx.SupportQueryData{Query: p.Query}
	if !isEmptyContext(p.CustomerContext) {
		block, err := indentJSON(p.CustomerContext)
		if err != nil {
			return nil, err
		}
		data.CustomerContext = block
	}
	if tickets, err := toList(p.TicketContext); err != nil {
		return nil, err
	} else if len(tickets) > 0 {
		block, err := indentJSON(tickets[:min(len(tickets), maxTicketContext)])
		if err != nil {
			return nil, err
		}
		data.TicketContext = block
		data.TicketCount = len(tickets)
	}

	prompt, err := promptx.Render(promptx.SupportQuery, data)
	if err != nil {
		return nil, err
	}
	reply, err := llmx.GenerateStructured[map[string]any](ctx, a.gen, prompt)
	if err != nil {
		return nil, fmt.Errorf("support query: %w", err)
	}
	a.logger.Info().Interface("query_type", reply["query_type"]).Interface("priority", reply["priority"]).Msg("support response generated")
	return reply, nil
}

func (a *SupportAgent) analyzeUrgency(ctx context.Context, params map[string]any) (any, error) {
	var p queryParams
	if err := contractx.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	prompt, err := promptx.Render(promptx.Urgency, promptx.QueryData{Query: p.Query})
	if err != nil {
		return nil, err
	}
	analysis, err := llmx.GenerateStructured[map[string]any](ctx, a.gen, prompt)
	if err != nil {
		return nil, fmt.Errorf("analyze urgency: %w", err)
	}
	a.logger.Info().Interface("priority", analysis["priority"]).Interface("is_urgent", analysis["is_urgent"]).Msg("urgency analyzed")
	return analysis, nil
}

// generateResponse falls back to the raw model text when it is not JSON.
func (a *SupportAgent) generateResponse(ctx context.Context, params map[string]any) (any, error) {
	var p queryParams
	if err := contractx.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	contextBlock, err := indentJSON(p.Context)
	if err != nil {
		return nil, err
	}
	prompt, err := promptx.Render(promptx.GenerateResponse, promptx.ResponseData{Query: p.Query, Context: contextBlock})
	if err != nil {
		return nil, err
	}

	raw, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate response: %w", err)
	}
	reply, err := llmx.ParseStructured[map[string]any](raw)
	if err != nil {
		a.logger.Warn().Err(err).Msg("response is not json, using raw text")
		return map[string]any{"response": llmx.StripCodeFence(raw)}, nil
	}
	return reply, nil
}

func (a *SupportAgent) getTickets(ctx context.Context, params map[string]any) (any, error) {
	return callGetTickets(ctx, a.tools, params)
}

func indentJSON(v any) (string, error) {
	if v == nil {
		v = map[string]any{}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: encode context: %v", contractx.ErrValidation, err)
	}
	var b bytes.Buffer
	if err := json.Indent(&b, raw, "", "  "); err != nil {
		return "", fmt.Errorf("%w: indent context: %v", contractx.ErrValidation, err)
	}
	return b.String(), nil
}

func isEmptyContext(v any) bool {
	if v == nil {
		return true
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return false
	}
	switch string(raw) {
	case "null", "{}", "[]", `""`:
		return true
	}
	return false
}

// toList views a JSON-compatible list of any element type as raw items.
func toList(v any) ([]json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode ticket context: %v", contractx.ErrValidation, err)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: ticket_context must be a list", contractx.ErrValidation)
	}
	return items, nil
}
