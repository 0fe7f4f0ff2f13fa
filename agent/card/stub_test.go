package card

import (
	"context"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
)

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, string) (string, error) {
	return "{}", nil
}

type stubGateway struct{}

func (stubGateway) Call(context.Context, string, map[string]any) contractx.ToolResult {
	return contractx.Success(nil)
}
