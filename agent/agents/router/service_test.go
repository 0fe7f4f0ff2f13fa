package router

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/agents/specialist"
	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	protocolx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/protocol"
	storex "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/store"
	"github.com/tanpawarit/Chative-A2A-Customer-Service/agent/store/storetest"
	toolx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/tool"
)

type fakeClassifier struct {
	analysis contractx.IntentAnalysis
	err      error
	calls    int
}

func (f *fakeClassifier) Classify(ctx context.Context, query string, customerID *int) (contractx.IntentAnalysis, error) {
	f.calls++
	if f.err != nil {
		return contractx.IntentAnalysis{}, f.err
	}
	return f.analysis, nil
}

type fakeGenerator struct {
	replies []string
	err     error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("no fake reply left")
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

type fakeAgent struct {
	id      contractx.AgentID
	mu      sync.Mutex
	msgs    []*protocolx.Message
	results map[string]any
	failing map[string]string
}

func newFakeAgent(id contractx.AgentID) *fakeAgent {
	return &fakeAgent{id: id, results: map[string]any{}, failing: map[string]string{}}
}

func (f *fakeAgent) ID() contractx.AgentID { return f.id }

func (f *fakeAgent) HandleMessage(ctx context.Context, msg *protocolx.Message) *protocolx.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	if reason, ok := f.failing[msg.Method]; ok {
		return protocolx.NewError(msg.ID, string(f.id), protocolx.CodeInternalError, reason)
	}
	if result, ok := f.results[msg.Method]; ok {
		return protocolx.NewResult(msg.ID, string(f.id), result)
	}
	return protocolx.NewResult(msg.ID, string(f.id), contractx.Success(map[string]any{"method": msg.Method}))
}

func (f *fakeAgent) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.msgs))
	for _, m := range f.msgs {
		out = append(out, m.Method)
	}
	return out
}

type harness struct {
	router     *Router
	classifier *fakeClassifier
	gen        *fakeGenerator
	data       *fakeAgent
	support    *fakeAgent
	comms      *protocolx.Log
}

func newHarness(t *testing.T, analysis contractx.IntentAnalysis) *harness {
	t.Helper()
	h := &harness{
		classifier: &fakeClassifier{analysis: analysis},
		gen:        &fakeGenerator{},
		data:       newFakeAgent(contractx.AgentData),
		support:    newFakeAgent(contractx.AgentSupport),
		comms:      protocolx.NewLog(),
	}
	r, err := New(h.classifier, h.gen, h.data, h.support, h.comms)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.router = r
	return h
}

func intPtr(v int) *int { return &v }

func TestNewRequiresCollaborators(t *testing.T) {
	t.Parallel()

	data := newFakeAgent(contractx.AgentData)
	support := newFakeAgent(contractx.AgentSupport)
	if _, err := New(nil, &fakeGenerator{}, data, support, nil); err == nil {
		t.Fatalf("expected error for missing classifier")
	}
	if _, err := New(&fakeClassifier{}, &fakeGenerator{}, nil, support, nil); err == nil {
		t.Fatalf("expected error for missing data agent")
	}
}

func TestRouteQueryRejectsBlankQuery(t *testing.T) {
	t.Parallel()

	h := newHarness(t, contractx.IntentAnalysis{Type: contractx.QuerySimpleDataRetrieval})
	_, err := h.router.RouteQuery(context.Background(), "   ", intPtr(5))
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if h.classifier.calls != 0 {
		t.Fatalf("classifier should not be called, got %d calls", h.classifier.calls)
	}
}

func TestRouteQueryFallsBackWhenClassifierFails(t *testing.T) {
	t.Parallel()

	h := newHarness(t, contractx.IntentAnalysis{})
	h.classifier.err = contractx.ErrSchemaViolation
	h.data.results["get_customer"] = contractx.Success(map[string]any{"customer": map[string]any{"id": 5}})

	got, err := h.router.RouteQuery(context.Background(), "Get customer information for ID 5", intPtr(5))
	if err != nil {
		t.Fatalf("RouteQuery() error = %v", err)
	}
	if got["success"] != true {
		t.Fatalf("expected data agent payload, got %#v", got)
	}
	if methods := h.data.methods(); !reflect.DeepEqual(methods, []string{"get_customer"}) {
		t.Fatalf("unexpected data agent calls: %v", methods)
	}
	if id := h.data.msgs[0].Params["customer_id"]; id != 5 {
		t.Fatalf("expected customer_id 5, got %#v", id)
	}
	if len(h.support.methods()) != 0 {
		t.Fatalf("support agent should not be contacted")
	}
}

func TestSimpleDataRetrievalWithoutCustomerID(t *testing.T) {
	t.Parallel()

	h := newHarness(t, contractx.IntentAnalysis{Type: contractx.QuerySimpleDataRetrieval})
	got, err := h.router.RouteQuery(context.Background(), "Who am I?", intPtr(0))
	if err != nil {
		t.Fatalf("RouteQuery() error = %v", err)
	}
	if got["error"] != "Customer ID required but not provided" {
		t.Fatalf("unexpected result: %#v", got)
	}
	if len(h.data.methods()) != 0 {
		t.Fatalf("no agent should be contacted")
	}
}

func TestSimpleDataRetrievalUsesMentionedID(t *testing.T) {
	t.Parallel()

	h := newHarness(t, contractx.IntentAnalysis{
		Type:                contractx.QuerySimpleDataRetrieval,
		CustomerIDMentioned: intPtr(3),
	})
	if _, err := h.router.RouteQuery(context.Background(), "Show customer 3", nil); err != nil {
		t.Fatalf("RouteQuery() error = %v", err)
	}
	if id := h.data.msgs[0].Params["customer_id"]; id != 3 {
		t.Fatalf("expected customer_id 3, got %#v", id)
	}
}

func TestSimpleDataRetrievalEmbedsErrorResponse(t *testing.T) {
	t.Parallel()

	h := newHarness(t, contractx.IntentAnalysis{Type: contractx.QuerySimpleDataRetrieval})
	h.data.failing["get_customer"] = "database unavailable"

	got, err := h.router.RouteQuery(context.Background(), "Customer 5 please", intPtr(5))
	if err != nil {
		t.Fatalf("RouteQuery() error = %v", err)
	}
	if got["error"] != "database unavailable" || got["code"] != protocolx.CodeInternalError {
		t.Fatalf("expected embedded error, got %#v", got)
	}
}

func TestUnknownQueryType(t *testing.T) {
	t.Parallel()

	h := newHarness(t, contractx.IntentAnalysis{Type: "smalltalk"})
	got, err := h.router.RouteQuery(context.Background(), "hello there", nil)
	if err != nil {
		t.Fatalf("RouteQuery() error = %v", err)
	}
	if got["error"] != "Unknown query type: smalltalk" {
		t.Fatalf("unexpected result: %#v", got)
	}
	if len(h.data.methods())+len(h.support.methods()) != 0 {
		t.Fatalf("no agent should be contacted")
	}
}

func TestCoordinatedSupport(t *testing.T) {
	t.Parallel()

	h := newHarness(t, contractx.IntentAnalysis{Type: contractx.QueryCoordinatedSupport})
	customer := map[string]any{"id": 5, "name": "Charlie Brown"}
	h.data.results["get_customer"] = contractx.Success(map[string]any{"customer": customer})
	h.support.results["handle_support_query"] = map[string]any{"response": "We are on it"}

	got, err := h.router.RouteQuery(context.Background(), "I need help with my account", intPtr(5))
	if err != nil {
		t.Fatalf("RouteQuery() error = %v", err)
	}
	if !reflect.DeepEqual(got["customer_context"], customer) {
		t.Fatalf("unexpected customer_context: %#v", got["customer_context"])
	}
	support, _ := got["support_response"].(map[string]any)
	if support["response"] != "We are on it" {
		t.Fatalf("unexpected support_response: %#v", got["support_response"])
	}
	params := h.support.msgs[0].Params
	if params["query"] != "I need help with my account" || !reflect.DeepEqual(params["customer_context"], customer) {
		t.Fatalf("unexpected support params: %#v", params)
	}
}

func TestCoordinatedSupportWithoutCustomer(t *testing.T) {
	t.Parallel()

	h := newHarness(t, contractx.IntentAnalysis{Type: contractx.QueryCoordinatedSupport})
	h.data.failing["get_customer"] = "boom"

	got, err := h.router.RouteQuery(context.Background(), "How do I reset my password?", intPtr(9))
	if err != nil {
		t.Fatalf("RouteQuery() error = %v", err)
	}
	lookup, _ := got["customer_context"].(map[string]any)
	if lookup["error"] != "boom" || lookup["code"] != protocolx.CodeInternalError {
		t.Fatalf("expected nested lookup error, got %#v", got["customer_context"])
	}
	if methods := h.support.methods(); !reflect.DeepEqual(methods, []string{"handle_support_query"}) {
		t.Fatalf("unexpected support calls: %v", methods)
	}
	if ctxParam := h.support.msgs[0].Params["customer_context"]; ctxParam != nil {
		t.Fatalf("support agent should get no customer context, got %#v", ctxParam)
	}
}

func TestCoordinatedSupportReportsUnknownCustomer(t *testing.T) {
	t.Parallel()

	h := newHarness(t, contractx.IntentAnalysis{Type: contractx.QueryCoordinatedSupport})
	h.data.results["get_customer"] = contractx.Failure("Customer not found", map[string]any{"customer_id": 42})

	got, err := h.router.RouteQuery(context.Background(), "Help me with my order", intPtr(42))
	if err != nil {
		t.Fatalf("RouteQuery() error = %v", err)
	}
	lookup, _ := got["customer_context"].(map[string]any)
	if lookup["error"] != "Customer not found" {
		t.Fatalf("expected nested lookup error, got %#v", got["customer_context"])
	}
	if ctxParam := h.support.msgs[0].Params["customer_context"]; ctxParam != nil {
		t.Fatalf("support agent should get no customer context, got %#v", ctxParam)
	}
}

func TestComplexMultiAgentWithoutActiveCustomers(t *testing.T) {
	t.Parallel()

	h := newHarness(t, contractx.IntentAnalysis{Type: contractx.QueryComplexMultiAgent})
	h.data.results["list_customers"] = contractx.Success(map[string]any{"count": 0, "customers": []any{}})

	got, err := h.router.RouteQuery(context.Background(), "Show all active customers with open tickets", nil)
	if err != nil {
		t.Fatalf("RouteQuery() error = %v", err)
	}
	if !reflect.DeepEqual(got, map[string]any{"message": "No active customers found"}) {
		t.Fatalf("unexpected result: %#v", got)
	}
	if len(h.support.methods()) != 0 {
		t.Fatalf("support agent should not be contacted")
	}
	params := h.data.msgs[0].Params
	if params["status"] != "active" || params["limit"] != 50 {
		t.Fatalf("unexpected list params: %#v", params)
	}
}

func TestComplexMultiAgent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, contractx.IntentAnalysis{Type: contractx.QueryComplexMultiAgent})
	h.data.results["list_customers"] = contractx.Success(map[string]any{
		"count":     2,
		"customers": []map[string]any{{"id": 1}, {"id": 2}},
	})
	tickets := []any{map[string]any{"id": 10, "customer_id": 2}}
	h.support.results["get_tickets"] = contractx.Success(map[string]any{"count": 1, "tickets": tickets})

	got, err := h.router.RouteQuery(context.Background(), "Show all active customers with open tickets", nil)
	if err != nil {
		t.Fatalf("RouteQuery() error = %v", err)
	}
	if got["active_customers_count"] != 2 {
		t.Fatalf("unexpected count: %#v", got)
	}
	if got["summary"] != "Found 2 active customers with 1 open tickets" {
		t.Fatalf("unexpected summary: %#v", got["summary"])
	}
	if !reflect.DeepEqual(got["open_tickets"], tickets) {
		t.Fatalf("unexpected open_tickets: %#v", got["open_tickets"])
	}
	params := h.support.msgs[0].Params
	if params["status"] != "open" || !reflect.DeepEqual(params["customer_ids"], []int{1, 2}) {
		t.Fatalf("unexpected get_tickets params: %#v", params)
	}
}

func TestComplexMultiAgentReportsTicketFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, contractx.IntentAnalysis{Type: contractx.QueryComplexMultiAgent})
	h.data.results["list_customers"] = contractx.Success(map[string]any{
		"count":     2,
		"customers": []map[string]any{{"id": 1}, {"id": 2}},
	})
	h.support.failing["get_tickets"] = "ticket store offline"

	got, err := h.router.RouteQuery(context.Background(), "Show all active customers with open tickets", nil)
	if err != nil {
		t.Fatalf("RouteQuery() error = %v", err)
	}
	if got["active_customers_count"] != 2 {
		t.Fatalf("unexpected count: %#v", got)
	}
	tickets, _ := got["open_tickets"].(map[string]any)
	if tickets["error"] != "ticket store offline" || tickets["code"] != protocolx.CodeInternalError {
		t.Fatalf("expected nested ticket error, got %#v", got["open_tickets"])
	}
	if summary, _ := got["summary"].(string); strings.Contains(summary, "0 open tickets") {
		t.Fatalf("failure reported as an empty answer: %q", summary)
	}
}

func TestEscalation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, contractx.IntentAnalysis{Type: contractx.QueryEscalation})
	urgency := map[string]any{"priority": "high", "is_urgent": true}
	h.support.results["analyze_urgency"] = urgency

	got, err := h.router.RouteQuery(context.Background(), "I've been charged twice, refund immediately!", intPtr(1))
	if err != nil {
		t.Fatalf("RouteQuery() error = %v", err)
	}
	if methods := h.support.methods(); !reflect.DeepEqual(methods, []string{"analyze_urgency", "handle_support_query"}) {
		t.Fatalf("unexpected support calls: %v", methods)
	}
	if got["escalated"] != true || !reflect.DeepEqual(got["urgency_analysis"], urgency) {
		t.Fatalf("unexpected result: %#v", got)
	}
	ctxParam, _ := h.support.msgs[1].Params["customer_context"].(map[string]any)
	if ctxParam["escalation"] != true || !reflect.DeepEqual(ctxParam["urgency"], urgency) {
		t.Fatalf("unexpected escalation context: %#v", ctxParam)
	}
}

func TestMultiIntent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, contractx.IntentAnalysis{
		Type:    contractx.QueryMultiIntent,
		Intents: []string{"update_email", "ticket_history"},
	})
	h.gen.replies = []string{"  new@email.com\n"}

	got, err := h.router.RouteQuery(context.Background(), "Update my email to new@email.com and show my ticket history", intPtr(1))
	if err != nil {
		t.Fatalf("RouteQuery() error = %v", err)
	}
	if methods := h.data.methods(); !reflect.DeepEqual(methods, []string{"update_customer", "get_customer_history"}) {
		t.Fatalf("unexpected data agent calls: %v", methods)
	}
	update := h.data.msgs[0].Params
	if update["customer_id"] != 1 || update["email"] != "new@email.com" {
		t.Fatalf("unexpected update params: %#v", update)
	}
	results, _ := got["results"].(map[string]any)
	if _, ok := results["email_update"]; !ok {
		t.Fatalf("missing email_update: %#v", got)
	}
	if _, ok := results["ticket_history"]; !ok {
		t.Fatalf("missing ticket_history: %#v", got)
	}
	if !reflect.DeepEqual(got["intents_processed"], []string{"update_email", "ticket_history"}) {
		t.Fatalf("unexpected intents_processed: %#v", got["intents_processed"])
	}
}

func TestMultiIntentEmbedsExtractionFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, contractx.IntentAnalysis{
		Type:    contractx.QueryMultiIntent,
		Intents: []string{"update_email"},
	})
	h.gen.err = errors.New("model offline")

	got, err := h.router.RouteQuery(context.Background(), "Change my email", intPtr(1))
	if err != nil {
		t.Fatalf("RouteQuery() error = %v", err)
	}
	results, _ := got["results"].(map[string]any)
	update, _ := results["email_update"].(map[string]any)
	if !strings.Contains(update["error"].(string), "model offline") {
		t.Fatalf("expected extraction error, got %#v", results)
	}
	if len(h.data.methods()) != 0 {
		t.Fatalf("data agent should not be contacted")
	}
}

func TestHandleMessageRoutesEnvelope(t *testing.T) {
	t.Parallel()

	h := newHarness(t, contractx.IntentAnalysis{Type: "other"})
	for _, method := range []contractx.Method{contractx.MethodRouteQuery, contractx.MethodCoordinateAgents} {
		msg := protocolx.NewMessage(string(method), map[string]any{"query": "hi", "customer_id": "5"}, "client", string(contractx.AgentRouter))
		resp := h.router.HandleMessage(context.Background(), msg)
		if resp.Failed() {
			t.Fatalf("%s: unexpected error %v", method, resp.Error)
		}
		result, _ := resp.Result.(map[string]any)
		if result["error"] != "Unknown query type: other" {
			t.Fatalf("%s: unexpected result %#v", method, resp.Result)
		}
	}

	msg := protocolx.NewMessage(string(contractx.MethodRouteQuery), map[string]any{"query": ""}, "client", string(contractx.AgentRouter))
	resp := h.router.HandleMessage(context.Background(), msg)
	if !resp.Failed() || resp.Error.Code != protocolx.CodeInternalError {
		t.Fatalf("expected error response for blank query, got %#v", resp)
	}

	summary := h.comms.Summary()
	if summary.MessagesSent != 3 || summary.ResponsesReceived != 3 || summary.Errors != 1 {
		t.Fatalf("unexpected log summary: %+v", summary)
	}
}

func newStoreBackedRouter(t *testing.T, analysis contractx.IntentAnalysis, gen *fakeGenerator) (*Router, *protocolx.Log) {
	t.Helper()
	mem := storetest.NewMemory([]storex.Customer{
		{ID: 1, Name: "John Doe", Email: "john@example.com", Status: storex.CustomerActive},
		{ID: 5, Name: "Charlie Brown", Email: "charlie@example.com", Phone: "+1-555-0105", Status: storex.CustomerActive},
	}, []storex.Ticket{
		{ID: 1, CustomerID: 5, Issue: "Cannot log in", Status: storex.TicketOpen, Priority: storex.PriorityHigh},
	})
	comms := protocolx.NewLog()
	gateway := toolx.NewLocal(mem)

	data, err := specialist.NewDataAgent(gateway, &fakeGenerator{}, comms)
	if err != nil {
		t.Fatalf("NewDataAgent() error = %v", err)
	}
	support, err := specialist.NewSupportAgent(gateway, &fakeGenerator{}, comms)
	if err != nil {
		t.Fatalf("NewSupportAgent() error = %v", err)
	}
	r, err := New(&fakeClassifier{analysis: analysis}, gen, data, support, comms)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r, comms
}

func TestRouteQueryCustomerFiveThroughDataAgent(t *testing.T) {
	t.Parallel()

	r, comms := newStoreBackedRouter(t, contractx.IntentAnalysis{
		Type:                contractx.QuerySimpleDataRetrieval,
		Intents:             []string{"get_customer"},
		RequiresDataAgent:   true,
		CustomerIDMentioned: intPtr(5),
	}, &fakeGenerator{})

	got, err := r.RouteQuery(context.Background(), "Get customer information for ID 5", nil)
	if err != nil {
		t.Fatalf("RouteQuery() error = %v", err)
	}
	if got["success"] != true {
		t.Fatalf("expected success, got %#v", got)
	}
	customer, ok := got["customer"].(storex.Customer)
	if !ok || customer.ID != 5 || customer.Name != "Charlie Brown" {
		t.Fatalf("unexpected customer: %#v", got["customer"])
	}

	summary := comms.Summary()
	if summary.MessagesSent != 1 || summary.ResponsesReceived != 1 || summary.Errors != 0 {
		t.Fatalf("unexpected log summary: %+v", summary)
	}
}

func TestMultiIntentWithoutCustomerIDEmbedsErrors(t *testing.T) {
	t.Parallel()

	r, _ := newStoreBackedRouter(t, contractx.IntentAnalysis{
		Type:    contractx.QueryMultiIntent,
		Intents: []string{"update_email", "show_history"},
	}, &fakeGenerator{replies: []string{"new@email.com"}})

	got, err := r.RouteQuery(context.Background(), "Update my email to new@email.com and show my history", nil)
	if err != nil {
		t.Fatalf("RouteQuery() error = %v", err)
	}
	results, _ := got["results"].(map[string]any)
	for _, key := range []string{"email_update", "ticket_history"} {
		entry, _ := results[key].(map[string]any)
		if entry["code"] != protocolx.CodeInternalError {
			t.Fatalf("%s: expected embedded error response, got %#v", key, results[key])
		}
	}
}
