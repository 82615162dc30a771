package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sekharnc/multi-agent-sk/agent"
	"github.com/sekharnc/multi-agent-sk/agent/router"
	"github.com/sekharnc/multi-agent-sk/llm"
	"github.com/sekharnc/multi-agent-sk/orchestrator"
	"github.com/sekharnc/multi-agent-sk/persistence"
	"github.com/sekharnc/multi-agent-sk/task"
	"github.com/sekharnc/multi-agent-sk/types"
)

// scriptedProvider returns canned replies in submission order.
type scriptedProvider struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	reply := "done"
	if p.calls < len(p.replies) {
		reply = p.replies[p.calls]
	}
	p.calls++
	return &llm.ChatResponse{
		Model:   "test-model",
		Choices: []llm.ChatChoice{{Message: types.NewAssistantMessage(reply)}},
	}, nil
}

func (p *scriptedProvider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	resp, err := p.Completion(ctx, req)
	if err != nil {
		return nil, err
	}
	ch := make(chan llm.StreamChunk, 2)
	ch <- llm.StreamChunk{Delta: types.NewAssistantMessage(resp.Text())}
	ch <- llm.StreamChunk{FinishReason: "stop"}
	close(ch)
	return ch, nil
}

func (p *scriptedProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true}, nil
}

// testServer bundles the running pieces a handler test needs.
type testServer struct {
	srv      *httptest.Server
	orch     *orchestrator.Orchestrator
	messages persistence.MessageStore
}

func newTestServer(t *testing.T, provider llm.Provider) *testServer {
	t.Helper()

	storeCfg := persistence.DefaultStoreConfig()
	taskStore := persistence.NewMemoryTaskStore(storeCfg)
	msgStore := persistence.NewMemoryMessageStore(storeCfg)

	orch := orchestrator.New(orchestrator.DefaultConfig(), orchestrator.Dependencies{
		Tasks:    taskStore,
		Messages: msgStore,
		Factory:  agent.NewFactory(provider, agent.FactoryConfig{}, nil),
		Router:   router.New(nil, nil),
		Logger:   zap.NewNop(),
	})
	require.NoError(t, orch.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = orch.Stop(ctx)
	})

	health := NewHealthHandler("test", zap.NewNop())
	health.RegisterCheck(HealthCheckFunc{CheckName: "task_store", Fn: taskStore.Ping})

	mux := http.NewServeMux()
	RegisterRoutes(mux, orch, msgStore, health, zap.NewNop())

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, orch: orch, messages: msgStore}
}

// postJSON sends body as JSON and decodes the envelope.
func (ts *testServer) postJSON(t *testing.T, path string, body interface{}) (*http.Response, Response) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.srv.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp, decodeEnvelope(t, resp)
}

func (ts *testServer) get(t *testing.T, path string) (*http.Response, Response) {
	t.Helper()
	resp, err := http.Get(ts.srv.URL + path)
	require.NoError(t, err)
	return resp, decodeEnvelope(t, resp)
}

func decodeEnvelope(t *testing.T, resp *http.Response) Response {
	t.Helper()
	defer resp.Body.Close()
	var env Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

// dataAs re-marshals the envelope's data into dst.
func dataAs(t *testing.T, env Response, dst interface{}) {
	t.Helper()
	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst))
}

// feedbackFor approves or rejects the first step awaiting feedback.
func feedbackFor(t *task.Task, approved bool) *orchestrator.FeedbackRequest {
	for i := range t.Steps {
		if t.Steps[i].Feedback == task.FeedbackRequested {
			return &orchestrator.FeedbackRequest{
				TaskID:   t.ID,
				StepID:   t.Steps[i].ID,
				Approved: approved,
			}
		}
	}
	return &orchestrator.FeedbackRequest{TaskID: t.ID}
}

// waitForTask polls the API until the task reaches want.
func (ts *testServer) waitForTask(t *testing.T, taskID string, want task.Status) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		got, err := ts.orch.GetTask(context.Background(), taskID)
		require.NoError(t, err)
		if got.Status == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	got, _ := ts.orch.GetTask(context.Background(), taskID)
	t.Fatalf("task %s never reached %s (last status %s)", taskID, want, got.Status)
}
