package tool

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/cloudwego/eino/schema"
	"github.com/mitchellh/mapstructure"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
)

const (
	ToolGetCustomer        = "get_customer"
	ToolListCustomers      = "list_customers"
	ToolUpdateCustomer     = "update_customer"
	ToolCreateTicket       = "create_ticket"
	ToolGetCustomerHistory = "get_customer_history"
	ToolGetTickets         = "get_tickets"
)

type Bounds struct {
	Min int
	Max int
}

// Spec declares a tool's arguments. Params carries types, enums and required
// flags; Defaults and Bounds cover what schema.ParameterInfo cannot express.
type Spec struct {
	Name     string
	Desc     string
	Params   map[string]*schema.ParameterInfo
	Defaults map[string]any
	Bounds   map[string]Bounds
}

var catalog = []Spec{
	{
		Name: ToolGetCustomer,
		Desc: "Get customer information by ID",
		Params: map[string]*schema.ParameterInfo{
			"customer_id": {Type: schema.Integer, Desc: "The customer ID to retrieve", Required: true},
		},
	},
	{
		Name: ToolListCustomers,
		Desc: "List customers with optional status filter",
		Params: map[string]*schema.ParameterInfo{
			"status": {Type: schema.String, Desc: "Filter by customer status", Enum: []string{"active", "disabled", "all"}},
			"limit":  {Type: schema.Integer, Desc: "Maximum number of customers to return"},
		},
		Defaults: map[string]any{"status": "all", "limit": 10},
		Bounds:   map[string]Bounds{"limit": {Min: 1, Max: 100}},
	},
	{
		Name: ToolUpdateCustomer,
		Desc: "Update customer information",
		Params: map[string]*schema.ParameterInfo{
			"customer_id": {Type: schema.Integer, Desc: "The customer ID to update", Required: true},
			"name":        {Type: schema.String, Desc: "New customer name"},
			"email":       {Type: schema.String, Desc: "New email address"},
			"phone":       {Type: schema.String, Desc: "New phone number"},
			"status":      {Type: schema.String, Desc: "New status", Enum: []string{"active", "disabled"}},
		},
	},
	{
		Name: ToolCreateTicket,
		Desc: "Create a new support ticket for a customer",
		Params: map[string]*schema.ParameterInfo{
			"customer_id": {Type: schema.Integer, Desc: "The customer ID", Required: true},
			"issue":       {Type: schema.String, Desc: "Description of the issue", Required: true},
			"priority":    {Type: schema.String, Desc: "Ticket priority", Enum: []string{"low", "medium", "high"}},
		},
		Defaults: map[string]any{"priority": "medium"},
	},
	{
		Name: ToolGetCustomerHistory,
		Desc: "Get customer's ticket history",
		Params: map[string]*schema.ParameterInfo{
			"customer_id": {Type: schema.Integer, Desc: "The customer ID", Required: true},
		},
	},
	{
		Name: ToolGetTickets,
		Desc: "Get tickets with optional filters",
		Params: map[string]*schema.ParameterInfo{
			"status":       {Type: schema.String, Desc: "Filter by ticket status", Enum: []string{"open", "in_progress", "resolved", "all"}},
			"priority":     {Type: schema.String, Desc: "Filter by priority", Enum: []string{"low", "medium", "high", "all"}},
			"customer_ids": {Type: schema.Array, Desc: "Filter by customer IDs", ElemInfo: &schema.ParameterInfo{Type: schema.Integer}},
		},
		Defaults: map[string]any{"status": "all", "priority": "all"},
	},
}

// Catalog returns the tool specs in declaration order.
func Catalog() []Spec {
	return slices.Clone(catalog)
}

func Lookup(name string) (Spec, bool) {
	for _, s := range catalog {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

// Normalize fills defaults and checks required arguments, enums and bounds.
// The input map is not modified.
func (s Spec) Normalize(args map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(args)+len(s.Defaults))
	maps.Copy(out, args)
	for name, def := range s.Defaults {
		if v, ok := out[name]; !ok || v == nil {
			out[name] = def
		}
	}

	for _, name := range slices.Sorted(maps.Keys(s.Params)) {
		p := s.Params[name]
		v, ok := out[name]
		if !ok || v == nil {
			if p.Required {
				return nil, fmt.Errorf("%w: %s is required", contractx.ErrValidation, name)
			}
			continue
		}
		if len(p.Enum) > 0 && !slices.Contains(p.Enum, fmt.Sprint(v)) {
			return nil, fmt.Errorf("%w: %s must be one of %v, got %v", contractx.ErrValidation, name, p.Enum, v)
		}
		if b, ok := s.Bounds[name]; ok {
			var n int
			if err := mapstructure.WeakDecode(v, &n); err != nil {
				return nil, fmt.Errorf("%w: %s must be an integer", contractx.ErrValidation, name)
			}
			if n < b.Min || n > b.Max {
				return nil, fmt.Errorf("%w: %s must be between %d and %d, got %d", contractx.ErrValidation, name, b.Min, b.Max, n)
			}
		}
	}
	return out, nil
}

// JSONSchema renders the input schema advertised over MCP.
func (s Spec) JSONSchema() (json.RawMessage, error) {
	properties := make(map[string]any, len(s.Params))
	required := make([]string, 0)
	for _, name := range slices.Sorted(maps.Keys(s.Params)) {
		p := s.Params[name]
		prop := parameterSchema(p)
		if def, ok := s.Defaults[name]; ok {
			prop["default"] = def
		}
		if b, ok := s.Bounds[name]; ok {
			prop["minimum"] = b.Min
			prop["maximum"] = b.Max
		}
		properties[name] = prop
		if p.Required {
			required = append(required, name)
		}
	}

	raw, err := json.Marshal(map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal schema for %s: %w", s.Name, err)
	}
	return raw, nil
}

func parameterSchema(p *schema.ParameterInfo) map[string]any {
	prop := map[string]any{"type": string(p.Type)}
	if p.Desc != "" {
		prop["description"] = p.Desc
	}
	if len(p.Enum) > 0 {
		prop["enum"] = p.Enum
	}
	if p.ElemInfo != nil {
		prop["items"] = parameterSchema(p.ElemInfo)
	}
	return prop
}
