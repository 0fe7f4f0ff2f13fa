package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	storex "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/store"
)

type handler func(ctx context.Context, args map[string]any) (contractx.ToolResult, error)

// Local serves the tool catalog in-process against a Data Store.
type Local struct {
	store    storex.Store
	handlers map[string]handler
	logger   zerolog.Logger
}

var _ contractx.ToolGateway = (*Local)(nil)

func NewLocal(store storex.Store) *Local {
	g := &Local{
		store:  store,
		logger: log.Logger.With().Str("component", "tool_gateway").Logger(),
	}
	g.handlers = map[string]handler{
		ToolGetCustomer:        g.getCustomer,
		ToolListCustomers:      g.listCustomers,
		ToolUpdateCustomer:     g.updateCustomer,
		ToolCreateTicket:       g.createTicket,
		ToolGetCustomerHistory: g.getCustomerHistory,
		ToolGetTickets:         g.getTickets,
	}
	return g
}

func (g *Local) Call(ctx context.Context, name string, args map[string]any) (result contractx.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error().Str("tool", name).Interface("panic", r).Msg("tool panicked")
			result = fault(name, args, fmt.Errorf("panic: %v", r))
		}
	}()

	spec, ok := Lookup(name)
	h, hasHandler := g.handlers[name]
	if !ok || !hasHandler {
		return contractx.Failure("Unknown tool: "+name, nil)
	}

	normalized, err := spec.Normalize(args)
	if err != nil {
		return fault(name, args, err)
	}

	out, err := h(ctx, normalized)
	if err != nil {
		g.logger.Warn().Err(err).Str("tool", name).Msg("tool call failed")
		return fault(name, args, err)
	}
	g.logger.Debug().Str("tool", name).Bool("success", out.OK()).Msg("tool called")
	return out
}

func fault(name string, args map[string]any, err error) contractx.ToolResult {
	return contractx.Failure(err.Error(), map[string]any{
		"tool":      name,
		"arguments": args,
	})
}

type customerIDArgs struct {
	CustomerID int `mapstructure:"customer_id"`
}

type listCustomersArgs struct {
	Status string `mapstructure:"status"`
	Limit  int    `mapstructure:"limit"`
}

type updateCustomerArgs struct {
	CustomerID int     `mapstructure:"customer_id"`
	Name       *string `mapstructure:"name"`
	Email      *string `mapstructure:"email"`
	Phone      *string `mapstructure:"phone"`
	Status     *string `mapstructure:"status"`
}

type createTicketArgs struct {
	CustomerID int    `mapstructure:"customer_id"`
	Issue      string `mapstructure:"issue"`
	Priority   string `mapstructure:"priority"`
}

type getTicketsArgs struct {
	Status      string `mapstructure:"status"`
	Priority    string `mapstructure:"priority"`
	CustomerIDs []int  `mapstructure:"customer_ids"`
}

func (g *Local) getCustomer(ctx context.Context, raw map[string]any) (contractx.ToolResult, error) {
	var args customerIDArgs
	if err := contractx.DecodeParams(raw, &args); err != nil {
		return nil, err
	}
	c, err := g.store.GetCustomer(ctx, args.CustomerID)
	if errors.Is(err, storex.ErrCustomerNotFound) {
		return contractx.Failure("Customer not found", map[string]any{"customer_id": args.CustomerID}), nil
	}
	if err != nil {
		return nil, err
	}
	return contractx.Success(map[string]any{"customer": *c}), nil
}

func (g *Local) listCustomers(ctx context.Context, raw map[string]any) (contractx.ToolResult, error) {
	var args listCustomersArgs
	if err := contractx.DecodeParams(raw, &args); err != nil {
		return nil, err
	}
	customers, err := g.store.ListCustomers(ctx, args.Status, args.Limit)
	if err != nil {
		return nil, err
	}
	return contractx.Success(map[string]any{
		"count":     len(customers),
		"customers": customers,
	}), nil
}

func (g *Local) updateCustomer(ctx context.Context, raw map[string]any) (contractx.ToolResult, error) {
	var args updateCustomerArgs
	if err := contractx.DecodeParams(raw, &args); err != nil {
		return nil, err
	}
	c, err := g.store.UpdateCustomer(ctx, args.CustomerID, storex.CustomerUpdate{
		Name:   args.Name,
		Email:  args.Email,
		Phone:  args.Phone,
		Status: args.Status,
	})
	switch {
	case errors.Is(err, storex.ErrNoFieldsToUpdate):
		return contractx.Failure("No fields to update", nil), nil
	case errors.Is(err, storex.ErrCustomerNotFound):
		return contractx.Failure("Customer not found or no changes made", map[string]any{"customer_id": args.CustomerID}), nil
	case err != nil:
		return nil, err
	}
	return contractx.Success(map[string]any{
		"message":  "Customer updated successfully",
		"customer": *c,
	}), nil
}

func (g *Local) createTicket(ctx context.Context, raw map[string]any) (contractx.ToolResult, error) {
	var args createTicketArgs
	if err := contractx.DecodeParams(raw, &args); err != nil {
		return nil, err
	}
	t, err := g.store.CreateTicket(ctx, args.CustomerID, args.Issue, args.Priority)
	if errors.Is(err, storex.ErrCustomerNotFound) {
		return contractx.Failure("Customer not found", map[string]any{"customer_id": args.CustomerID}), nil
	}
	if err != nil {
		return nil, err
	}
	return contractx.Success(map[string]any{
		"message": "Ticket created successfully",
		"ticket":  *t,
	}), nil
}

func (g *Local) getCustomerHistory(ctx context.Context, raw map[string]any) (contractx.ToolResult, error) {
	var args customerIDArgs
	if err := contractx.DecodeParams(raw, &args); err != nil {
		return nil, err
	}
	h, err := g.store.GetCustomerHistory(ctx, args.CustomerID)
	if errors.Is(err, storex.ErrCustomerNotFound) {
		return contractx.Failure("Customer not found", map[string]any{"customer_id": args.CustomerID}), nil
	}
	if err != nil {
		return nil, err
	}
	return contractx.Success(map[string]any{
		"customer":     h.Customer,
		"ticket_count": len(h.Tickets),
		"tickets":      h.Tickets,
	}), nil
}

func (g *Local) getTickets(ctx context.Context, raw map[string]any) (contractx.ToolResult, error) {
	var args getTicketsArgs
	if err := contractx.DecodeParams(raw, &args); err != nil {
		return nil, err
	}
	tickets, err := g.store.GetTickets(ctx, storex.TicketFilter{
		Status:      args.Status,
		Priority:    args.Priority,
		CustomerIDs: args.CustomerIDs,
	})
	if err != nil {
		return nil, err
	}
	return contractx.Success(map[string]any{
		"count":   len(tickets),
		"tickets": tickets,
	}), nil
}
