package protocol

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogConversationFiltersByIDInOrder(t *testing.T) {
	t.Parallel()

	l := NewLog()
	m1 := NewMessage("get_customer", nil, "router_agent", "data_agent", WithMessageID("a"))
	m2 := NewMessage("analyze_urgency", nil, "router_agent", "support_agent", WithMessageID("b"))

	l.LogMessage(m1)
	l.LogMessage(m2)
	l.LogResponse(NewResult("b", "support_agent", map[string]any{"priority": "high"}))
	l.LogResponse(NewResult("a", "data_agent", map[string]any{"success": true}))

	convA := l.Conversation("a")
	require.Len(t, convA, 2)
	assert.Equal(t, KindMessage, convA[0].Kind)
	assert.Equal(t, KindResponse, convA[1].Kind)

	convB := l.Conversation("b")
	require.Len(t, convB, 2)
	assert.Equal(t, KindMessage, convB[0].Kind)
	assert.Equal(t, KindResponse, convB[1].Kind)

	assert.Empty(t, l.Conversation("missing"))
	assert.Len(t, l.Entries(), 4)
}

func TestLogSummaryCounts(t *testing.T) {
	t.Parallel()

	l := NewLog()
	l.LogMessage(NewMessage("get_customer", nil, "router_agent", "data_agent", WithMessageID("1")))
	l.LogResponse(NewResult("1", "data_agent", nil))
	l.LogMessage(NewMessage("get_customer", nil, "router_agent", "data_agent", WithMessageID("2")))
	l.LogResponse(NewError("2", "data_agent", CodeInternalError, "boom"))
	l.LogMessage(NewMessage("get_tickets", nil, "router_agent", "support_agent", WithMessageID("3")))

	s := l.Summary()
	assert.Equal(t, Summary{
		TotalCommunications: 5,
		MessagesSent:        3,
		ResponsesReceived:   2,
		Errors:              1,
	}, s)
	assert.Equal(t, s.TotalCommunications, s.MessagesSent+s.ResponsesReceived)
	assert.LessOrEqual(t, s.Errors, s.ResponsesReceived)
}

func TestLogEntriesAreSnapshots(t *testing.T) {
	t.Parallel()

	l := NewLog()
	result := map[string]any{"status": "open"}
	resp := NewResult("x", "data_agent", result)
	l.LogResponse(resp)

	result["status"] = "resolved"
	resp.FromAgent = "someone_else"

	entries := l.Conversation("x")
	require.Len(t, entries, 1)

	decoded, err := entries[0].Decode()
	require.NoError(t, err)
	got, ok := decoded.(*Response)
	require.True(t, ok)
	assert.Equal(t, "data_agent", got.FromAgent)
	assert.Equal(t, map[string]any{"status": "open"}, got.Result)
}

func TestLogClear(t *testing.T) {
	t.Parallel()

	l := NewLog()
	l.LogMessage(NewMessage("get_customer", nil, "router_agent", "data_agent"))
	l.Clear()

	assert.Empty(t, l.Entries())
	assert.Equal(t, Summary{}, l.Summary())
}

func TestLogConcurrentAppends(t *testing.T) {
	t.Parallel()

	l := NewLog()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("req-%d", i)
			l.LogMessage(NewMessage("get_customer", nil, "router_agent", "data_agent", WithMessageID(id)))
			l.LogResponse(NewResult(id, "data_agent", nil))
		}(i)
	}
	wg.Wait()

	s := l.Summary()
	assert.Equal(t, 40, s.TotalCommunications)
	for i := 0; i < 20; i++ {
		conv := l.Conversation(fmt.Sprintf("req-%d", i))
		require.Len(t, conv, 2)
		assert.Equal(t, KindMessage, conv[0].Kind)
		assert.Equal(t, KindResponse, conv[1].Kind)
	}
}
