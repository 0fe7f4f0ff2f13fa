package protocol

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EntryKind string

const (
	KindMessage  EntryKind = "message"
	KindResponse EntryKind = "response"
)

// Entry is a logged envelope. Payload is a JSON snapshot taken at append
// time, so later changes to the original envelope never leak into the log.
type Entry struct {
	Kind     EntryKind       `json:"type"`
	ID       string          `json:"id"`
	HasError bool            `json:"-"`
	Payload  json.RawMessage `json:"data"`
}

// Decode unmarshals the snapshot into a fresh envelope.
func (e Entry) Decode() (any, error) {
	switch e.Kind {
	case KindResponse:
		var resp Response
		if err := json.Unmarshal(e.Payload, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	default:
		var msg Message
		if err := json.Unmarshal(e.Payload, &msg); err != nil {
			return nil, err
		}
		return &msg, nil
	}
}

type Summary struct {
	TotalCommunications int `json:"total_communications"`
	MessagesSent        int `json:"messages_sent"`
	ResponsesReceived   int `json:"responses_received"`
	Errors              int `json:"errors"`
}

// Log is the append-only record of every envelope exchanged between agents.
// It is safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	logger  zerolog.Logger
}

func NewLog() *Log {
	return &Log{
		logger: log.Logger.With().Str("component", "a2a").Logger(),
	}
}

func (l *Log) LogMessage(msg *Message) {
	if msg == nil {
		return
	}
	l.append(Entry{
		Kind:    KindMessage,
		ID:      msg.ID,
		Payload: l.snapshot(msg),
	})
	l.logger.Info().
		Str("from", msg.FromAgent).
		Str("to", msg.ToAgent).
		Str("method", msg.Method).
		Str("id", msg.ID).
		Msg("a2a message")
}

func (l *Log) LogResponse(resp *Response) {
	if resp == nil {
		return
	}
	l.append(Entry{
		Kind:     KindResponse,
		ID:       resp.ID,
		HasError: resp.Error != nil,
		Payload:  l.snapshot(resp),
	})

	event := l.logger.Info()
	if resp.Error != nil {
		event = l.logger.Warn().Int("code", resp.Error.Code).Str("error", resp.Error.Message)
	}
	event.Str("from", resp.FromAgent).Str("id", resp.ID).Msg("a2a response")
}

// Conversation returns every entry whose envelope id equals id, in append order.
func (l *Log) Conversation(id string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, 0, 2)
	for _, e := range l.entries {
		if e.ID == id {
			out = append(out, e)
		}
	}
	return out
}

func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

func (l *Log) Summary() Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var s Summary
	s.TotalCommunications = len(l.entries)
	for _, e := range l.entries {
		switch e.Kind {
		case KindMessage:
			s.MessagesSent++
		case KindResponse:
			s.ResponsesReceived++
			if e.HasError {
				s.Errors++
			}
		}
	}
	return s
}

func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}

func (l *Log) append(e Entry) {
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
}

// snapshot never fails; an unencodable envelope is recorded as null.
func (l *Log) snapshot(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		l.logger.Warn().Err(err).Msg("envelope snapshot failed")
		return json.RawMessage("null")
	}
	return raw
}
