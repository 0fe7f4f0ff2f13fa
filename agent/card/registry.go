package card

import (
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	toolx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/tool"
)

const cardVersion = "1.0.0"

// cards builds the static registry. It is rebuilt per call so callers can
// never mutate a shared card.
func cards() []Card {
	return []Card{routerCard(), dataCard(), supportCard()}
}

func routerCard() Card {
	intents := make([]string, 0, len(contractx.QueryTypes()))
	for _, t := range contractx.QueryTypes() {
		intents = append(intents, string(t))
	}

	return Card{
		AgentID:     contractx.AgentRouter,
		Name:        "Router Agent",
		Description: "Orchestrates customer queries and coordinates between specialist agents",
		Version:     cardVersion,
		Capabilities: []string{
			"query_analysis",
			"intent_detection",
			"agent_coordination",
			"response_synthesis",
		},
		Methods: []MethodSpec{
			{
				Name:        string(contractx.MethodRouteQuery),
				Description: "Analyze and route customer query to appropriate agents",
				Params: []Param{
					{Name: "query", Type: "string", Required: true},
					{Name: "customer_id", Type: "integer"},
				},
				Returns: "Complete response with coordination details",
			},
			{
				Name:        string(contractx.MethodCoordinateAgents),
				Description: "Coordinate multiple agents for complex queries",
				Params: []Param{
					{Name: "query", Type: "string", Required: true},
					{Name: "required_agents", Type: "array of agent names", Required: true},
				},
				Returns: "Coordinated response",
			},
		},
		SupportedIntents: intents,
		UsesLLM:          true,
	}
}

func dataCard() Card {
	return Card{
		AgentID:     contractx.AgentData,
		Name:        "Customer Data Agent",
		Description: "Manages customer data and ticket information via MCP",
		Version:     cardVersion,
		Capabilities: []string{
			"customer_retrieval",
			"customer_listing",
			"customer_update",
			"ticket_creation",
			"ticket_history",
			"ticket_query",
		},
		Methods: []MethodSpec{
			{
				Name:        string(contractx.MethodGetCustomer),
				Description: "Retrieve customer information by ID",
				Params:      []Param{{Name: "customer_id", Type: "integer", Required: true}},
				Returns:     "Customer object",
				Tool:        toolx.ToolGetCustomer,
			},
			{
				Name:        string(contractx.MethodListCustomers),
				Description: "List customers with optional filters",
				Params: []Param{
					{Name: "status", Type: "string", Enum: []string{"active", "disabled", "all"}},
					{Name: "limit", Type: "integer"},
				},
				Returns: "Array of customer objects",
				Tool:    toolx.ToolListCustomers,
			},
			{
				Name:        string(contractx.MethodUpdateCustomer),
				Description: "Update customer information",
				Params: []Param{
					{Name: "customer_id", Type: "integer", Required: true},
					{Name: "name", Type: "string"},
					{Name: "email", Type: "string"},
					{Name: "phone", Type: "string"},
					{Name: "status", Type: "string", Enum: []string{"active", "disabled"}},
				},
				Returns: "Updated customer object",
				Tool:    toolx.ToolUpdateCustomer,
			},
			{
				Name:        string(contractx.MethodGetCustomerHistory),
				Description: "Get ticket history for a customer",
				Params:      []Param{{Name: "customer_id", Type: "integer", Required: true}},
				Returns:     "Customer object with ticket array",
				Tool:        toolx.ToolGetCustomerHistory,
			},
			{
				Name:        string(contractx.MethodCreateTicket),
				Description: "Create new support ticket",
				Params: []Param{
					{Name: "customer_id", Type: "integer", Required: true},
					{Name: "issue", Type: "string", Required: true},
					{Name: "priority", Type: "string", Enum: []string{"low", "medium", "high"}},
				},
				Returns: "Created ticket object",
				Tool:    toolx.ToolCreateTicket,
			},
			ticketsMethod(),
		},
		ToolServer: toolx.ServerName,
		Transport:  "stdio",
		UsesLLM:    true,
	}
}

func supportCard() Card {
	return Card{
		AgentID:     contractx.AgentSupport,
		Name:        "Support Agent",
		Description: "Handles customer support queries using AI and MCP tools",
		Version:     cardVersion,
		Capabilities: []string{
			"query_analysis",
			"support_response_generation",
			"priority_assessment",
			"escalation_detection",
			"ticket_management",
		},
		Methods: []MethodSpec{
			{
				Name:        string(contractx.MethodHandleSupportQuery),
				Description: "Process customer support query with AI",
				Params: []Param{
					{Name: "query", Type: "string", Required: true},
					{Name: "customer_context", Type: "object"},
					{Name: "ticket_context", Type: "array"},
				},
				Returns: "Support response with analysis",
			},
			{
				Name:        string(contractx.MethodAnalyzeUrgency),
				Description: "Analyze query urgency and priority",
				Params:      []Param{{Name: "query", Type: "string", Required: true}},
				Returns:     "Priority assessment object",
			},
			{
				Name:        string(contractx.MethodGenerateResponse),
				Description: "Generate customer-facing support response",
				Params: []Param{
					{Name: "query", Type: "string", Required: true},
					{Name: "context", Type: "object", Required: true},
				},
				Returns: "Support response string",
			},
			ticketsMethod(),
		},
		SupportedQueryTypes: []string{
			"general_inquiry",
			"technical_support",
			"billing_question",
			"cancellation_refund",
			"feature_request",
			"account_issue",
		},
		PriorityLevels: []string{"low", "medium", "high"},
		UsesLLM:        true,
	}
}

// ticketsMethod is served by both specialists.
func ticketsMethod() MethodSpec {
	return MethodSpec{
		Name:        string(contractx.MethodGetTickets),
		Description: "Query tickets with filters",
		Params: []Param{
			{Name: "status", Type: "string", Enum: []string{"open", "in_progress", "resolved", "all"}},
			{Name: "priority", Type: "string", Enum: []string{"low", "medium", "high", "all"}},
			{Name: "customer_ids", Type: "array of integers"},
		},
		Returns: "Array of ticket objects",
		Tool:    toolx.ToolGetTickets,
	}
}
