package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekharnc/multi-agent-sk/api"
	"github.com/sekharnc/multi-agent-sk/task"
)

func wsURL(httpURL, path string) string {
	return strings.Replace(httpURL, "http://", "ws://", 1) + path
}

func TestTaskEventsWebSocket(t *testing.T) {
	ts := newTestServer(t, &scriptedProvider{replies: []string{"all set"}})

	// Gate execution behind approval so the subscription is attached
	// before any step runs.
	approve := true
	_, env := ts.postJSON(t, "/api/v1/tasks", api.SubmitTaskRequest{
		UserID:          "user-1",
		Description:     "set up the vpn on my laptop",
		RequireApproval: &approve,
	})
	var created api.TaskResponse
	dataAs(t, env, &created)
	ts.waitForTask(t, created.Task.ID, task.StatusAwaitingFeedback)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(ts.srv.URL, "/api/v1/tasks/"+created.Task.ID+"/events"), nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	got, err := ts.orch.GetTask(ctx, created.Task.ID)
	require.NoError(t, err)
	_, err = ts.orch.Feedback(ctx, feedbackFor(got, true))
	require.NoError(t, err)

	var events []task.Event
	for {
		var ev task.Event
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			break
		}
		events = append(events, ev)
		if ev.Status.IsTerminal() {
			break
		}
	}

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, task.EventCompleted, last.Type)
	assert.Equal(t, task.StatusCompleted, last.Status)

	sawStep := false
	for _, ev := range events {
		if ev.Type == task.EventStepCompleted {
			sawStep = true
			assert.Equal(t, created.Task.ID, ev.TaskID)
			assert.NotEmpty(t, ev.StepID)
		}
	}
	assert.True(t, sawStep, "expected a step_completed event")
}

func TestTaskEventsUnknownTask(t *testing.T) {
	ts := newTestServer(t, &scriptedProvider{})

	resp, err := http.Get(ts.srv.URL + "/api/v1/tasks/no-such-task/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTaskEventsTerminalTask(t *testing.T) {
	ts := newTestServer(t, &scriptedProvider{})

	_, env := ts.postJSON(t, "/api/v1/tasks", api.SubmitTaskRequest{
		UserID:      "user-1",
		Description: "quick question",
	})
	var created api.TaskResponse
	dataAs(t, env, &created)
	ts.waitForTask(t, created.Task.ID, task.StatusCompleted)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(ts.srv.URL, "/api/v1/tasks/"+created.Task.ID+"/events"), nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	// The server closes immediately for a terminal task.
	var ev task.Event
	err = wsjson.Read(ctx, conn, &ev)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
}
