package specialist

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	llmx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/llm"
	promptx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/prompt"
	protocolx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/protocol"
	toolx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/tool"
)

// DataAgent owns customer and ticket records. Every method goes through the
// Tool Gateway; email updates are checked by the Text Generator first.
type DataAgent struct {
	Dispatcher
	tools contractx.ToolGateway
	gen   contractx.TextGenerator
}

var _ contractx.Agent = (*DataAgent)(nil)

func NewDataAgent(tools contractx.ToolGateway, gen contractx.TextGenerator, comms *protocolx.Log) (*DataAgent, error) {
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	if gen == nil {
		return nil, errors.New("text generator is required")
	}

	a := &DataAgent{
		Dispatcher: NewDispatcher(contractx.AgentData, comms),
		tools:      tools,
		gen:        gen,
	}
	a.Register(contractx.MethodGetCustomer, a.getCustomer)
	a.Register(contractx.MethodListCustomers, a.listCustomers)
	a.Register(contractx.MethodUpdateCustomer, a.updateCustomer)
	a.Register(contractx.MethodGetCustomerHistory, a.getCustomerHistory)
	a.Register(contractx.MethodCreateTicket, a.createTicket)
	a.Register(contractx.MethodGetTickets, a.getTickets)
	return a, nil
}

type customerIDParams struct {
	CustomerID *int `mapstructure:"customer_id"`
}

type listCustomersParams struct {
	Status string `mapstructure:"status"`
	Limit  int    `mapstructure:"limit"`
}

type updateCustomerParams struct {
	CustomerID *int    `mapstructure:"customer_id"`
	Name       *string `mapstructure:"name"`
	Email      *string `mapstructure:"email"`
	Phone      *string `mapstructure:"phone"`
	Status     *string `mapstructure:"status"`
}

type createTicketParams struct {
	CustomerID *int   `mapstructure:"customer_id"`
	Issue      string `mapstructure:"issue"`
	Priority   string `mapstructure:"priority"`
}

type ticketFilterParams struct {
	Status      string `mapstructure:"status"`
	Priority    string `mapstructure:"priority"`
	CustomerIDs []int  `mapstructure:"customer_ids"`
}

type emailVerdict struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

func (a *DataAgent) getCustomer(ctx context.Context, params map[string]any) (any, error) {
	var p customerIDParams
	if err := contractx.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := requireInt("customer_id", p.CustomerID); err != nil {
		return nil, err
	}
	return a.tools.Call(ctx, toolx.ToolGetCustomer, map[string]any{"customer_id": *p.CustomerID}), nil
}

func (a *DataAgent) listCustomers(ctx context.Context, params map[string]any) (any, error) {
	p := listCustomersParams{Status: "all", Limit: 10}
	if err := contractx.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return a.tools.Call(ctx, toolx.ToolListCustomers, map[string]any{
		"status": p.Status,
		"limit":  p.Limit,
	}), nil
}

func (a *DataAgent) updateCustomer(ctx context.Context, params map[string]any) (any, error) {
	var p updateCustomerParams
	if err := contractx.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := requireInt("customer_id", p.CustomerID); err != nil {
		return nil, err
	}

	args := map[string]any{"customer_id": *p.CustomerID}
	for key, v := range map[string]*string{"name": p.Name, "email": p.Email, "phone": p.Phone, "status": p.Status} {
		if v != nil && *v != "" {
			args[key] = *v
		}
	}

	if p.Email != nil && *p.Email != "" {
		verdict, err := a.validateEmail(ctx, *p.Email)
		if err != nil {
			return nil, err
		}
		if !verdict.Valid {
			a.logger.Info().Str("email", *p.Email).Str("reason", verdict.Message).Msg("email rejected")
			return contractx.Failure("Invalid email: "+verdict.Message, map[string]any{"customer_id": *p.CustomerID}), nil
		}
	}

	return a.tools.Call(ctx, toolx.ToolUpdateCustomer, args), nil
}

func (a *DataAgent) validateEmail(ctx context.Context, email string) (emailVerdict, error) {
	p, err := promptx.Render(promptx.ValidateEmail, promptx.EmailData{Email: email})
	if err != nil {
		return emailVerdict{}, err
	}
	verdict, err := llmx.GenerateStructured[emailVerdict](ctx, a.gen, p)
	if err != nil {
		return emailVerdict{}, fmt.Errorf("validate email: %w", err)
	}
	return verdict, nil
}

func (a *DataAgent) getCustomerHistory(ctx context.Context, params map[string]any) (any, error) {
	var p customerIDParams
	if err := contractx.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := requireInt("customer_id", p.CustomerID); err != nil {
		return nil, err
	}
	return a.tools.Call(ctx, toolx.ToolGetCustomerHistory, map[string]any{"customer_id": *p.CustomerID}), nil
}

func (a *DataAgent) createTicket(ctx context.Context, params map[string]any) (any, error) {
	p := createTicketParams{Priority: "medium"}
	if err := contractx.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := requireInt("customer_id", p.CustomerID); err != nil {
		return nil, err
	}
	return a.tools.Call(ctx, toolx.ToolCreateTicket, map[string]any{
		"customer_id": *p.CustomerID,
		"issue":       p.Issue,
		"priority":    p.Priority,
	}), nil
}

func (a *DataAgent) getTickets(ctx context.Context, params map[string]any) (any, error) {
	return callGetTickets(ctx, a.tools, params)
}

// callGetTickets is shared by the data and support agents.
func callGetTickets(ctx context.Context, tools contractx.ToolGateway, params map[string]any) (any, error) {
	p := ticketFilterParams{Status: "all", Priority: "all"}
	if err := contractx.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	args := map[string]any{
		"status":   p.Status,
		"priority": p.Priority,
	}
	if len(p.CustomerIDs) > 0 {
		args["customer_ids"] = p.CustomerIDs
	}
	return tools.Call(ctx, toolx.ToolGetTickets, args), nil
}
