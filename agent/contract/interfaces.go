package contract

import (
	"context"

	protocolx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/protocol"
)

// Agent is an addressable service that answers request envelopes. It never
// returns a Go error: faults come back as error responses.
type Agent interface {
	ID() AgentID
	HandleMessage(ctx context.Context, msg *protocolx.Message) *protocolx.Response
}

// TextGenerator turns a free-form prompt into text that is expected to parse
// as the structured shape the prompt asks for.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type IntentClassifier interface {
	Classify(ctx context.Context, query string, customerID *int) (IntentAnalysis, error)
}

// ToolGateway is the uniform call surface of the Data Store. Call never
// fails past this boundary; faults are returned in-band.
type ToolGateway interface {
	Call(ctx context.Context, tool string, args map[string]any) ToolResult
}
