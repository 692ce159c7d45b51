package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/narrator"
	"github.com/aretw0/narrator/pkg/adapters/memory"
	"github.com/aretw0/narrator/pkg/dsl"
	"github.com/aretw0/narrator/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	tree    *memory.Tree
	streams *StreamManager
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tree := dsl.New("doc").
		Add(
			dsl.Paragraph("p", "Hello world."),
			dsl.Entry("e", "abc"),
		).
		MustBuild()

	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	streams := NewStreamManager(nil)
	n := narrator.New(tree, nil,
		narrator.WithPresenter(streams),
		narrator.WithLifecycleHooks(streams.Hooks().Merge(metrics.Hooks())),
	)
	return &fixture{
		tree:    tree,
		streams: streams,
		handler: NewHandler(n, streams, tree.Root(), WithResolver(tree), WithMetrics(reg)),
	}
}

func (fx *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	fx.handler.ServeHTTP(w, req)
	return w
}

func (fx *fixture) command(t *testing.T, id string, body CommandRequest) CommandResponse {
	t.Helper()
	w := fx.do(t, "POST", "/sessions/"+id+"/commands", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp CommandResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestSessionLifecycle(t *testing.T) {
	fx := newFixture(t)

	w := fx.do(t, "POST", "/sessions/s1", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var in narrator.Inspection
	require.NoError(t, json.NewDecoder(w.Body).Decode(&in))
	assert.True(t, in.Open)
	assert.Equal(t, "p@0", in.Caret)
	assert.Equal(t, "doc", in.Session.DocumentID)

	w = fx.do(t, "GET", "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["s1"]`, w.Body.String())

	w = fx.do(t, "GET", "/sessions/s1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = fx.do(t, "DELETE", "/sessions/s1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = fx.do(t, "GET", "/sessions/s1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = fx.do(t, "GET", "/sessions", nil)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestExecuteCommand(t *testing.T) {
	fx := newFixture(t)
	fx.do(t, "POST", "/sessions/s1", nil)

	resp := fx.command(t, "s1", CommandRequest{Command: "next_word"})
	assert.True(t, resp.Handled)
	require.Len(t, resp.Presentations, 1)
	assert.Equal(t, "Hello", resp.Presentations[0].Text)
	assert.Equal(t, "p@5", resp.Presentations[0].Caret)

	quiet := false
	resp = fx.command(t, "s1", CommandRequest{Command: "current_line", Notify: &quiet})
	assert.True(t, resp.Handled)
	assert.Empty(t, resp.Presentations)

	resp = fx.command(t, "s1", CommandRequest{Command: "next_line"})
	assert.True(t, resp.Handled)
	require.Len(t, resp.Presentations, 2)
	assert.Equal(t, narrator.MsgPassThrough, resp.Presentations[0].Message)
	assert.Equal(t, "abc", resp.Presentations[1].Text)

	resp = fx.command(t, "s1", CommandRequest{Command: "next_line"})
	assert.False(t, resp.Handled, "pass-through leaves the key to the application")
}

func TestExecuteCommand_FocusChanged(t *testing.T) {
	fx := newFixture(t)
	fx.do(t, "POST", "/sessions/s1", nil)

	resp := fx.command(t, "s1", CommandRequest{Command: narrator.CmdFocusChanged, Focus: "e", Previous: "p"})
	assert.True(t, resp.Handled)
	require.Len(t, resp.Presentations, 1)
	assert.Equal(t, narrator.MsgPassThrough, resp.Presentations[0].Message)

	w := fx.do(t, "POST", "/sessions/s1/commands", CommandRequest{Command: narrator.CmdFocusChanged, Focus: "missing"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExecuteCommand_Errors(t *testing.T) {
	fx := newFixture(t)
	fx.do(t, "POST", "/sessions/s1", nil)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"unknown command", "/sessions/s1/commands", CommandRequest{Command: "fly"}, http.StatusBadRequest},
		{"unknown session", "/sessions/s9/commands", CommandRequest{Command: "next_word"}, http.StatusNotFound},
		{"missing event", "/sessions/s1/commands", CommandRequest{Command: narrator.CmdFocusChanged}, http.StatusBadRequest},
		{"oversized command", "/sessions/s1/commands", CommandRequest{Command: strings.Repeat("x", 1000)}, http.StatusBadRequest},
		{"bad body", "/sessions/s1/commands", "not an object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := fx.do(t, "POST", tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestInterrupt(t *testing.T) {
	fx := newFixture(t)
	fx.do(t, "POST", "/sessions/s1", nil)

	w := fx.do(t, "POST", "/sessions/s1/interrupt", InterruptRequest{Cause: "move_up"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"interrupted": false}`, w.Body.String())

	w = fx.do(t, "POST", "/sessions/s1/interrupt", InterruptRequest{Cause: "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInfoCommandsHealth(t *testing.T) {
	fx := newFixture(t)

	w := fx.do(t, "GET", "/health", nil)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = fx.do(t, "GET", "/info", nil)
	assert.Contains(t, w.Body.String(), narrator.Version)

	w = fx.do(t, "GET", "/commands", nil)
	var cmds []string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&cmds))
	assert.Contains(t, cmds, "say_all")
	assert.Contains(t, cmds, "next_word")

	w = fx.do(t, "OPTIONS", "/sessions/s1/commands", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	fx := newFixture(t)
	fx.do(t, "POST", "/sessions/s1", nil)
	fx.command(t, "s1", CommandRequest{Command: "next_word"})

	w := fx.do(t, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `narrator_caret_commands_total{command="next_word",found="true"} 1`)
}

func TestSubscribeEvents(t *testing.T) {
	fx := newFixture(t)
	srv := httptest.NewServer(fx.handler)
	defer srv.Close()
	fx.do(t, "POST", "/sessions/s1", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/sessions/s1/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool {
		return fx.streams.Subscribers("s1") == 1
	}, time.Second, 10*time.Millisecond)

	fx.command(t, "s1", CommandRequest{Command: narrator.CmdToggleMode})

	sc := bufio.NewScanner(resp.Body)
	var events []string
	for sc.Scan() && len(events) < 3 {
		if ev, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
			events = append(events, ev)
		}
	}
	assert.Equal(t, []string{"ping", "mode", "presentation"}, events)
}

func TestStreamManager_DropsWhenFull(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe("s1")
	defer cancel()

	for range 20 {
		sm.Broadcast("s1", "unit", map[string]int{"n": 1})
	}
	assert.Len(t, ch, 16)

	cancel()
	assert.Zero(t, sm.Subscribers("s1"))
	assert.NotPanics(t, cancel, "unsubscribing twice is harmless")
}
