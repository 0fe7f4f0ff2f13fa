package routernode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	llmx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/llm"
	promptx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/prompt"
)

// Sub-calls in every strategy are strictly sequential.

func SimpleDataRetrieval(ctx context.Context, st *GraphState, p Peers) (GraphOutput, error) {
	id, ok := st.customerID()
	if !ok {
		return GraphOutput{Result: map[string]any{"error": "Customer ID required but not provided"}}, nil
	}
	resp := p.send(ctx, p.Data, contractx.MethodGetCustomer, map[string]any{"customer_id": id})
	return GraphOutput{Result: payloadOf(resp)}, nil
}

func CoordinatedSupport(ctx context.Context, st *GraphState, p Peers) (GraphOutput, error) {
	// A failed lookup is reported in the result but never shown to the
	// support agent as customer context.
	var customerContext, reported any
	if id, ok := st.customerID(); ok {
		looked := payloadOf(p.send(ctx, p.Data, contractx.MethodGetCustomer, map[string]any{"customer_id": id}))
		if contractx.ToolResult(looked).Error() != "" {
			reported = looked
		} else {
			customerContext = looked["customer"]
			reported = customerContext
		}
	}

	support := p.send(ctx, p.Support, contractx.MethodHandleSupportQuery, map[string]any{
		"query":            st.Query,
		"customer_context": customerContext,
	})
	return GraphOutput{Result: map[string]any{
		"customer_context": reported,
		"support_response": payloadOf(support),
	}}, nil
}

type customerRef struct {
	ID int `json:"id"`
}

func ComplexMultiAgent(ctx context.Context, st *GraphState, p Peers) (GraphOutput, error) {
	listed := payloadOf(p.send(ctx, p.Data, contractx.MethodListCustomers, map[string]any{
		"status": "active",
		"limit":  50,
	}))
	if contractx.ToolResult(listed).Error() != "" {
		return GraphOutput{Result: listed}, nil
	}

	customers, _ := contractx.Field[[]customerRef](listed, "customers")
	if len(customers) == 0 {
		return GraphOutput{Result: map[string]any{"message": "No active customers found"}}, nil
	}
	ids := make([]int, 0, len(customers))
	for _, c := range customers {
		ids = append(ids, c.ID)
	}

	tickets := payloadOf(p.send(ctx, p.Support, contractx.MethodGetTickets, map[string]any{
		"status":       "open",
		"customer_ids": ids,
	}))
	if contractx.ToolResult(tickets).Error() != "" {
		return GraphOutput{Result: map[string]any{
			"active_customers_count": len(customers),
			"open_tickets":           tickets,
			"summary":                fmt.Sprintf("Found %d active customers; open tickets unavailable", len(customers)),
		}}, nil
	}
	openTickets, ok := tickets["tickets"]
	if !ok || openTickets == nil {
		openTickets = []any{}
	}
	count, _ := contractx.Field[int](tickets, "count")

	return GraphOutput{Result: map[string]any{
		"active_customers_count": len(customers),
		"open_tickets":           openTickets,
		"summary":                fmt.Sprintf("Found %d active customers with %d open tickets", len(customers), count),
	}}, nil
}

func Escalation(ctx context.Context, st *GraphState, p Peers) (GraphOutput, error) {
	urgency := payloadOf(p.send(ctx, p.Support, contractx.MethodAnalyzeUrgency, map[string]any{"query": st.Query}))

	support := p.send(ctx, p.Support, contractx.MethodHandleSupportQuery, map[string]any{
		"query": st.Query,
		"customer_context": map[string]any{
			"escalation": true,
			"urgency":    urgency,
		},
	})
	return GraphOutput{Result: map[string]any{
		"urgency_analysis": urgency,
		"support_response": payloadOf(support),
		"escalated":        true,
	}}, nil
}

func MultiIntent(ctx context.Context, st *GraphState, p Peers) (GraphOutput, error) {
	var customerID any
	if id, ok := st.customerID(); ok {
		customerID = id
	}

	intents := st.Intent.Intents
	if intents == nil {
		intents = []string{}
	}
	results := map[string]any{}

	for _, intent := range intents {
		switch {
		case intent == "update_email":
			email, err := extractEmail(ctx, st.Query, p.Generator)
			if err != nil {
				p.Logger.Warn().Err(err).Msg("email extraction failed")
				results["email_update"] = map[string]any{"error": err.Error()}
				continue
			}
			resp := p.send(ctx, p.Data, contractx.MethodUpdateCustomer, map[string]any{
				"customer_id": customerID,
				"email":       email,
			})
			results["email_update"] = payloadOf(resp)
		case strings.Contains(intent, "history") || strings.Contains(intent, "ticket"):
			resp := p.send(ctx, p.Data, contractx.MethodGetCustomerHistory, map[string]any{"customer_id": customerID})
			results["ticket_history"] = payloadOf(resp)
		}
	}

	return GraphOutput{Result: map[string]any{
		"intents_processed": intents,
		"results":           results,
	}}, nil
}

func UnknownType(st *GraphState) (GraphOutput, error) {
	return GraphOutput{Result: map[string]any{
		"error": fmt.Sprintf("Unknown query type: %s", st.Intent.Type),
	}}, nil
}

func extractEmail(ctx context.Context, query string, gen contractx.TextGenerator) (string, error) {
	if gen == nil {
		return "", fmt.Errorf("%w: no text generator for email extraction", contractx.ErrModelInvoke)
	}
	prompt, err := promptx.Render(promptx.ExtractEmail, promptx.QueryData{Query: query})
	if err != nil {
		return "", err
	}
	raw, err := gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return llmx.StripCodeFence(raw), nil
}
