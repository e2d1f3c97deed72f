package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/internal/metrics"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/runner"
	"github.com/hupe1980/agentloop/tool"
)

func echoCatalog() *tool.Catalog {
	return tool.MustCatalog(tool.NewTextFunctionTool("check_balance", "Check balance", map[string]any{
		"type":       "object",
		"properties": map[string]any{"customer_id": map[string]any{"type": "string"}},
	}, func(_ context.Context, args map[string]any) (string, error) {
		return "balance for " + args["customer_id"].(string), nil
	}))
}

func newTestServer(t *testing.T, llm model.Model, optFns ...func(o *Options)) *Server {
	t.Helper()
	r, err := runner.New(llm, runner.StaticCatalog(echoCatalog()))
	require.NoError(t, err)
	return New(r, optFns...)
}

func decodeNDJSON(t *testing.T, body string) []core.Event {
	t.Helper()
	var events []core.Event
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		var ev core.Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, sc.Err())
	return events
}

func TestChat_Stream(t *testing.T) {
	llm := model.NewMockModel("m", "mock").
		EnqueueText("P").
		EnqueueToolCalls(core.ToolCall{ID: "c1", Name: "check_balance", Arguments: map[string]any{"customer_id": "C002"}}).
		EnqueueText("done").
		EnqueueText("Your balance is fine.")
	s := newTestServer(t, llm)

	body := `{"message":"balance?","history":[{"role":"user","content":"hi"}],"customerId":"C002"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))
	assert.True(t, rec.Flushed)

	events := decodeNDJSON(t, rec.Body.String())
	require.Len(t, events, 5)
	assert.Equal(t, "Decided to call check_balance", events[1].Content)
	assert.Equal(t, core.EventFinal, events[4].Type)
	assert.Equal(t, "Your balance is fine.", events[4].Content)
	assert.Len(t, events[4].Steps, 2)

	system := llm.Requests()[0].Messages[1]
	assert.Contains(t, system.Text, "C002")
}

func TestChat_BadRequest(t *testing.T) {
	s := newTestServer(t, model.NewMockModel("m", "mock"))

	for _, body := range []string{`{`, `{"message":"   "}`} {
		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, rec.Body.String(), `"error"`)
	}
}

func TestChat_ErrorEvent(t *testing.T) {
	s := newTestServer(t, model.NewMockModel("m", "mock").EnqueueError(errors.New("quota exceeded")))

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	events := decodeNDJSON(t, rec.Body.String())
	require.Len(t, events, 1)
	assert.Equal(t, core.EventError, events[0].Type)
	assert.Equal(t, "quota exceeded", events[0].Content)
}

func TestChat_RequestTimeout(t *testing.T) {
	slow := model.NewMockModel("m", "mock").EnqueueFunc(func(model.Request) (core.Message, error) {
		time.Sleep(100 * time.Millisecond)
		return core.NewAssistantMessage("P"), nil
	})
	s := newTestServer(t, slow, WithRequestTimeout(20*time.Millisecond))

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	events := decodeNDJSON(t, rec.Body.String())
	require.Len(t, events, 1)
	assert.Equal(t, core.EventError, events[0].Type)
	assert.Contains(t, events[0].Content, context.DeadlineExceeded.Error())
}

func TestHealthAndGraph(t *testing.T) {
	s := newTestServer(t, model.NewMockModel("m", "mock"))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graph", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "agent -.-> tools")
}

func TestMetricsAndTools(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = metrics.MustNew(reg)

	s := newTestServer(t, model.NewMockModel("m", "mock"),
		WithGatherer(reg),
		WithCatalog(runner.StaticCatalog(echoCatalog())),
	)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "agentloop_runner_runs_active")

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tools", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Tools []tool.Definition `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Tools, 1)
	assert.Equal(t, "check_balance", out.Tools[0].Name)
}

func TestRoutesDisabledByDefault(t *testing.T) {
	s := newTestServer(t, model.NewMockModel("m", "mock"))
	for _, path := range []string{"/metrics", "/tools"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, model.NewMockModel("m", "mock"))

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	s := newTestServer(t, model.NewMockModel("m", "mock"), WithCORSOrigins("https://bank.example.com"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	s := newTestServer(t, model.NewMockModel("m", "mock"), WithShutdownTimeout(time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
