package router

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	nodex "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/nodes/router"
)

type strategyFunc func(ctx context.Context, st *nodex.GraphState, p nodex.Peers) (nodex.GraphOutput, error)

func (r *Router) compileRouteGraph(ctx context.Context) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode(nodex.NodeValidateRequest,
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeValidateRequest, err)
	}

	if err := graph.AddLambdaNode(nodex.NodeAnalyzeIntent,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.AnalyzeIntent(ctx, in, r.classifier, r.logger)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeAnalyzeIntent, err)
	}

	strategies := map[contractx.QueryType]strategyFunc{
		contractx.QuerySimpleDataRetrieval: nodex.SimpleDataRetrieval,
		contractx.QueryCoordinatedSupport:  nodex.CoordinatedSupport,
		contractx.QueryComplexMultiAgent:   nodex.ComplexMultiAgent,
		contractx.QueryEscalation:          nodex.Escalation,
		contractx.QueryMultiIntent:         nodex.MultiIntent,
	}

	endNodes := map[string]bool{nodex.NodeUnknownType: true}
	for _, qt := range contractx.QueryTypes() {
		name := string(qt)
		run := strategies[qt]
		if err := graph.AddLambdaNode(name,
			compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
				r.logger.Info().Str("strategy", name).Msg("routing query")
				return run(ctx, in, r.peers)
			}),
		); err != nil {
			return nil, fmt.Errorf("add node %s: %w", name, err)
		}
		endNodes[name] = true
	}

	if err := graph.AddLambdaNode(nodex.NodeUnknownType,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			r.logger.Warn().Str("type", string(in.Intent.Type)).Msg("unknown query type")
			return nodex.UnknownType(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.NodeUnknownType, err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			return nodex.SelectStrategy(in), nil
		},
		endNodes,
	)
	if err := graph.AddBranch(nodex.NodeAnalyzeIntent, branch); err != nil {
		return nil, fmt.Errorf("add branch %s: %w", nodex.NodeAnalyzeIntent, err)
	}

	edges := [][2]string{
		{compose.START, nodex.NodeValidateRequest},
		{nodex.NodeValidateRequest, nodex.NodeAnalyzeIntent},
	}
	for name := range endNodes {
		edges = append(edges, [2]string{name, compose.END})
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("router.route_query"))
	if err != nil {
		return nil, fmt.Errorf("compile router graph: %w", err)
	}
	return runner, nil
}
