package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
)

// Version is the JSON-RPC revision carried by every envelope.
const Version = "2.0"

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

var ErrMalformedEnvelope = errors.New("malformed envelope")

// Message is a request envelope sent from one agent to another.
// Treat it as immutable once built.
type Message struct {
	JSONRPC   string         `json:"jsonrpc"`
	Method    string         `json:"method"`
	Params    map[string]any `json:"params"`
	ID        string         `json:"id"`
	FromAgent string         `json:"from_agent"`
	ToAgent   string         `json:"to_agent"`
	Timestamp string         `json:"timestamp"`
}

type MessageOption func(*Message)

// WithMessageID overrides the generated request id. The id is kept verbatim
// so responses echo exactly what the caller sent.
func WithMessageID(id string) MessageOption {
	return func(m *Message) {
		if id != "" {
			m.ID = id
		}
	}
}

func NewMessage(method string, params map[string]any, fromAgent, toAgent string, opts ...MessageOption) *Message {
	msg := &Message{
		JSONRPC:   Version,
		Method:    method,
		Params:    cloneParams(params),
		ID:        uuid.NewString(),
		FromAgent: fromAgent,
		ToAgent:   toAgent,
		Timestamp: now(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(msg)
		}
	}
	return msg
}

func (m *Message) ToMap() map[string]any {
	return map[string]any{
		"jsonrpc":    m.JSONRPC,
		"method":     m.Method,
		"params":     cloneParams(m.Params),
		"id":         m.ID,
		"from_agent": m.FromAgent,
		"to_agent":   m.ToAgent,
		"timestamp":  m.Timestamp,
	}
}

func (m *Message) ToJSON() (string, error) {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}
	return string(raw), nil
}

// MessageFromMap rebuilds a request from its canonical mapping. method,
// from_agent and to_agent are required; id and timestamp are defaulted. A
// present id must be a string.
func MessageFromMap(data map[string]any) (*Message, error) {
	method, err := requiredString(data, "method")
	if err != nil {
		return nil, err
	}
	from, err := requiredString(data, "from_agent")
	if err != nil {
		return nil, err
	}
	to, err := requiredString(data, "to_agent")
	if err != nil {
		return nil, err
	}

	var params map[string]any
	switch p := data["params"].(type) {
	case nil:
	case map[string]any:
		params = p
	default:
		return nil, fmt.Errorf("%w: params must be an object, got %T", ErrMalformedEnvelope, p)
	}

	var id string
	switch v := data["id"].(type) {
	case nil:
	case string:
		id = v
	default:
		return nil, fmt.Errorf("%w: id must be a string, got %T", ErrMalformedEnvelope, v)
	}

	msg := NewMessage(method, params, from, to, WithMessageID(id))
	if v, ok := data["jsonrpc"].(string); ok && v != "" {
		msg.JSONRPC = v
	}
	if ts, ok := data["timestamp"].(string); ok {
		msg.Timestamp = ts
	}
	return msg, nil
}

func MessageFromJSON(s string) (*Message, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return MessageFromMap(data)
}

// RPCError is the error member of a response envelope.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Response answers a Message and echoes its id. Exactly one of Result and
// Error is meaningful; Error wins when both are set.
type Response struct {
	JSONRPC   string
	Result    any
	Error     *RPCError
	ID        string
	FromAgent string
	Timestamp string
}

func NewResult(id, fromAgent string, result any) *Response {
	return &Response{
		JSONRPC:   Version,
		Result:    result,
		ID:        id,
		FromAgent: fromAgent,
		Timestamp: now(),
	}
}

func NewError(id, fromAgent string, code int, message string) *Response {
	return &Response{
		JSONRPC:   Version,
		Error:     &RPCError{Code: code, Message: message},
		ID:        id,
		FromAgent: fromAgent,
		Timestamp: now(),
	}
}

func (r *Response) Failed() bool {
	return r != nil && r.Error != nil
}

// ToMap returns the canonical mapping. result is left out entirely when an
// error is present.
func (r *Response) ToMap() map[string]any {
	out := map[string]any{
		"jsonrpc":    r.JSONRPC,
		"id":         r.ID,
		"from_agent": r.FromAgent,
		"timestamp":  r.Timestamp,
	}
	if r.Error != nil {
		out["error"] = map[string]any{
			"code":    r.Error.Code,
			"message": r.Error.Message,
		}
	} else {
		out["result"] = r.Result
	}
	return out
}

type responseWire struct {
	JSONRPC   string          `json:"jsonrpc"`
	ID        string          `json:"id"`
	FromAgent string          `json:"from_agent"`
	Timestamp string          `json:"timestamp"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *RPCError       `json:"error,omitempty"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	wire := responseWire{
		JSONRPC:   r.JSONRPC,
		ID:        r.ID,
		FromAgent: r.FromAgent,
		Timestamp: r.Timestamp,
	}
	if r.Error != nil {
		wire.Error = r.Error
	} else {
		raw, err := json.Marshal(r.Result)
		if err != nil {
			return nil, fmt.Errorf("marshal response result: %w", err)
		}
		wire.Result = raw
	}
	return json.Marshal(wire)
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	var wire responseWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	out := Response{
		JSONRPC:   wire.JSONRPC,
		ID:        wire.ID,
		FromAgent: wire.FromAgent,
		Timestamp: wire.Timestamp,
		Error:     wire.Error,
	}
	if out.JSONRPC == "" {
		out.JSONRPC = Version
	}
	if _, ok := fields["timestamp"]; !ok {
		out.Timestamp = now()
	}
	if out.Error == nil {
		if raw, ok := fields["result"]; ok {
			if err := json.Unmarshal(raw, &out.Result); err != nil {
				return fmt.Errorf("%w: result: %v", ErrMalformedEnvelope, err)
			}
		}
	}

	*r = out
	return nil
}

func (r *Response) ToJSON() (string, error) {
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal response: %w", err)
	}
	return string(raw), nil
}

func ResponseFromMap(data map[string]any) (*Response, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return ResponseFromJSON(string(raw))
}

func ResponseFromJSON(s string) (*Response, error) {
	var resp Response
	if err := resp.UnmarshalJSON([]byte(s)); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UnmarshalJSON keeps the timestamp fallback and the required-field checks
// of MessageFromMap for messages decoded straight from the wire.
func (m *Message) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	msg, err := MessageFromMap(fields)
	if err != nil {
		return err
	}
	*m = *msg
	return nil
}

func requiredString(data map[string]any, key string) (string, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s is required", ErrMalformedEnvelope, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrMalformedEnvelope, key, v)
	}
	return s, nil
}

func cloneParams(params map[string]any) map[string]any {
	if params == nil {
		return map[string]any{}
	}
	return maps.Clone(params)
}

func now() string {
	return time.Now().Format(time.RFC3339Nano)
}
