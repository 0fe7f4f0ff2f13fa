package specialist

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	protocolx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/protocol"
)

// HandlerFunc serves one method. A returned error becomes an error response.
type HandlerFunc func(ctx context.Context, params map[string]any) (any, error)

// Dispatcher is the envelope handling shared by agents. It logs the request,
// routes by method, turns faults into error responses and logs the reply.
type Dispatcher struct {
	id       contractx.AgentID
	comms    *protocolx.Log
	handlers map[contractx.Method]HandlerFunc
	logger   zerolog.Logger
}

func NewDispatcher(id contractx.AgentID, comms *protocolx.Log) Dispatcher {
	if comms == nil {
		comms = protocolx.NewLog()
	}
	return Dispatcher{
		id:       id,
		comms:    comms,
		handlers: make(map[contractx.Method]HandlerFunc),
		logger:   log.Logger.With().Str("agent", string(id)).Logger(),
	}
}

func (d *Dispatcher) Register(method contractx.Method, h HandlerFunc) {
	d.handlers[method] = h
}

func (d *Dispatcher) ID() contractx.AgentID {
	return d.id
}

// Methods lists the methods this agent dispatches on.
func (d *Dispatcher) Methods() []contractx.Method {
	return slices.Sorted(maps.Keys(d.handlers))
}

func (d *Dispatcher) HandleMessage(ctx context.Context, msg *protocolx.Message) *protocolx.Response {
	if msg == nil {
		resp := protocolx.NewError("", string(d.id), protocolx.CodeInternalError, "message is nil")
		d.comms.LogResponse(resp)
		return resp
	}

	d.comms.LogMessage(msg)
	d.logger.Info().Str("method", msg.Method).Str("from", msg.FromAgent).Str("id", msg.ID).Msg("message received")

	resp := d.dispatch(ctx, msg)

	d.comms.LogResponse(resp)
	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, msg *protocolx.Message) (resp *protocolx.Response) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Str("method", msg.Method).Msg("handler panicked")
			resp = protocolx.NewError(msg.ID, string(d.id), protocolx.CodeInternalError, fmt.Sprintf("panic: %v", r))
		}
	}()

	if msg.ToAgent != string(d.id) {
		return protocolx.NewError(msg.ID, string(d.id), protocolx.CodeInternalError,
			fmt.Sprintf("message addressed to %s, not %s", msg.ToAgent, d.id))
	}

	h, ok := d.handlers[contractx.Method(msg.Method)]
	if !ok {
		d.logger.Warn().Str("method", msg.Method).Msg("unknown method")
		return protocolx.NewResult(msg.ID, string(d.id), contractx.Failure("Unknown method: "+msg.Method, nil))
	}

	result, err := h(ctx, msg.Params)
	if err != nil {
		d.logger.Warn().Err(err).Str("method", msg.Method).Msg("handler failed")
		return protocolx.NewError(msg.ID, string(d.id), protocolx.CodeInternalError, err.Error())
	}
	return protocolx.NewResult(msg.ID, string(d.id), result)
}

func requireInt(name string, v *int) error {
	if v == nil {
		return fmt.Errorf("%w: %s is required", contractx.ErrValidation, name)
	}
	return nil
}
