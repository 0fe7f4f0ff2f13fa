// Package router classifies customer queries and coordinates the specialist
// agents that answer them.
package router

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/agents/specialist"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	nodex "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/nodes/router"
	protocolx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/protocol"
)

var ErrInvalidQuery = nodex.ErrInvalidQuery

type Router struct {
	specialist.Dispatcher

	classifier contractx.IntentClassifier
	peers      nodex.Peers
	logger     zerolog.Logger

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
}

var _ contractx.Agent = (*Router)(nil)

// New wires a router to its downstream agents. gen is used for email
// extraction in multi-intent queries.
func New(
	classifier contractx.IntentClassifier,
	gen contractx.TextGenerator,
	data contractx.Agent,
	support contractx.Agent,
	comms *protocolx.Log,
) (*Router, error) {
	if classifier == nil {
		return nil, errors.New("intent classifier is required")
	}
	if gen == nil {
		return nil, errors.New("text generator is required")
	}
	if data == nil {
		return nil, errors.New("data agent is required")
	}
	if support == nil {
		return nil, errors.New("support agent is required")
	}

	logger := log.Logger.With().Str("agent", string(contractx.AgentRouter)).Logger()
	r := &Router{
		Dispatcher: specialist.NewDispatcher(contractx.AgentRouter, comms),
		classifier: classifier,
		logger:     logger,
		peers: nodex.Peers{
			Self:      contractx.AgentRouter,
			Data:      data,
			Support:   support,
			Generator: gen,
			Logger:    logger,
		},
	}

	graphRunner, err := r.compileRouteGraph(context.Background())
	if err != nil {
		return nil, err
	}
	r.graphRunner = graphRunner

	r.Register(contractx.MethodRouteQuery, r.handleRouteQuery)
	r.Register(contractx.MethodCoordinateAgents, r.handleRouteQuery)
	return r, nil
}

// RouteQuery classifies query and returns the aggregated answer of the
// chosen strategy. A nil or zero customerID means none was supplied.
func (r *Router) RouteQuery(ctx context.Context, query string, customerID *int) (map[string]any, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrInvalidQuery
	}
	out, err := r.graphRunner.Invoke(ctx, nodex.GraphInput{
		Query:      query,
		CustomerID: customerID,
	})
	if err != nil {
		return nil, err
	}
	return out.Result, nil
}

type routeParams struct {
	Query      string `mapstructure:"query"`
	CustomerID *int   `mapstructure:"customer_id"`
}

func (r *Router) handleRouteQuery(ctx context.Context, params map[string]any) (any, error) {
	var p routeParams
	if err := contractx.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return r.RouteQuery(ctx, p.Query, p.CustomerID)
}
